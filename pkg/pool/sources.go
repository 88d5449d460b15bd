package pool

import (
	"fmt"
	"net/url"

	gametypes "github.com/wordgame/fictionary/pkg/game/types"
)

// WordURL returns the dictionary page of a pool candidate.
func WordURL(c gametypes.Candidate) string {
	switch c.Source {
	case "wikipedia":
		return "https://ja.wikipedia.org/wiki/" + url.PathEscape(c.Word)
	case "wiktionary":
		return "https://ja.wiktionary.org/wiki/" + url.PathEscape(c.Word)
	case "ascii":
		return "http://yougo.ascii.jp/caltar/" + url.PathEscape(c.Word)
	case "binary":
		return "http://www.sophia-it.com/content/" + url.PathEscape(c.Word)
	case "ewords":
		return fmt.Sprintf("http://e-words.jp/w/%s.html", url.PathEscape(c.Word))
	case "fideli":
		return fmt.Sprintf("http://dic-it.fideli.com/dictionary/m/word/w/%s/index.html", url.PathEscape(c.ID))
	case "nicopedia":
		return "http://dic.nicovideo.jp/a/" + url.PathEscape(c.Word)
	}
	return ""
}

// SourceLabel returns the display name of a corpus source.
func SourceLabel(source string) string {
	switch source {
	case "wikipedia":
		return "Wikipedia"
	case "wiktionary":
		return "Wiktionary"
	case "ascii":
		return "ASCII.jp Digital Glossary"
	case "binary":
		return "IT Dictionary Binary"
	case "ewords":
		return "e-Words IT Dictionary"
	case "fideli":
		return "Fideli IT Dictionary"
	case "nicopedia":
		return "Niconico Pedia"
	}
	return source
}

// IconURL returns the favicon of a corpus source.
func IconURL(source string) string {
	switch source {
	case "wikipedia":
		return "https://ja.wikipedia.org/static/favicon/wikipedia.ico"
	case "wiktionary":
		return "https://ja.wiktionary.org/static/favicon/piece.ico"
	case "ascii":
		return "http://ascii.jp/img/favicon.ico"
	case "binary":
		return "http://www.sophia-it.com/favicon.ico"
	case "ewords":
		return "http://p.e-words.jp/favicon.png"
	case "fideli":
		return "http://dic-it.fideli.com/image/favicon.ico"
	case "nicopedia":
		return "http://dic.nicovideo.jp/favicon.ico"
	}
	return ""
}
