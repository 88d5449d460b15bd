package constants

import "time"

const (
	// CollectMeaningsLive is how long meaning submission stays open for a
	// round started on demand
	CollectMeaningsLive = 3 * time.Minute
	// CollectMeaningsCurated is how long meaning submission stays open for a
	// curated (daily) round
	CollectMeaningsCurated = 90 * time.Minute
	// CollectBettingsLive is the betting window of a live round
	CollectBettingsLive = 3 * time.Minute
	// CollectBettingsCurated is the betting window of a curated round
	CollectBettingsCurated = 30 * time.Minute
	// ResumeGrace is added to a deadline that already passed while the
	// process was down, so a restart never fires a transition instantly
	ResumeGrace = 60 * time.Second

	// CandidateCount is how many theme options are offered before a live round
	CandidateCount = 10
	// MaxMeaningBytes caps the length of a submitted meaning
	MaxMeaningBytes = 256
	// MinCoins and MaxCoins bound a single bet
	MinCoins = 1
	MaxCoins = 5
	// MinCuratedParticipants is the minimum human participation for a
	// curated round to proceed past the meanings deadline
	MinCuratedParticipants = 3
	// DecoyTarget is the card count the decoy injector pads rounds towards
	DecoyTarget = 4
	// MinDecoys is the decoy count injected even in crowded rounds
	MinDecoys = 1

	// RatingWindow is how many historical rating entries are retained per participant
	RatingWindow = 5
	// RatingFloor is the minimum decayed value of a single rating entry and
	// the padding value for missing entries
	RatingFloor = -6
	// RatingDecayPerDay is subtracted from a rating entry per elapsed day
	RatingDecayPerDay = 0.2
	// LowBucketThreshold groups participants at or below this summed score
	// into a single unranked bucket
	LowBucketThreshold = -30

	// MinReadingLength and MaxReadingLength filter pool entries by reading length
	MinReadingLength = 3
	MaxReadingLength = 7
)
