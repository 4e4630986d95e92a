// Package emotion maps acoustic features to a coarse emotion label with a
// fixed, ordered decision list. It is not a trained model; the thresholds are
// deliberately simple and approximate.
package emotion

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/user/podcast-insight/internal/features"
)

// Emotion is a classification label.
type Emotion string

const (
	Neutral  Emotion = "neutral"
	Happy    Emotion = "happy"
	Sad      Emotion = "sad"
	Angry    Emotion = "angry"
	Fearful  Emotion = "fearful"
	Surprise Emotion = "surprise"

	// Unknown is returned when there is nothing to classify. It is not an
	// error and never appears as a key in Scores.
	Unknown Emotion = "unknown"
)

// Score weights.
const (
	PrimaryScore  = 0.5
	BaselineScore = 0.1
)

// Emotions returns the six classifiable labels in their fixed order.
func Emotions() []Emotion {
	return []Emotion{Neutral, Happy, Sad, Angry, Fearful, Surprise}
}

// Descriptors are the three features the rules look at.
type Descriptors struct {
	Energy float64 // rmse_mean
	Pitch  float64 // spectral_centroid_mean
	ZCR    float64 // zcr_mean
}

// DescriptorsFrom reads the rule inputs from v, defaulting missing values to 0.
func DescriptorsFrom(v features.FeatureVector) Descriptors {
	return Descriptors{
		Energy: v.Get(features.RMSMean),
		Pitch:  v.Get(features.SpectralCentroidMean),
		ZCR:    v.Get(features.ZCRMean),
	}
}

// Rule is one entry of the decision list.
type Rule struct {
	Label Emotion
	Match func(d Descriptors) bool
}

// Rules is evaluated top to bottom and the first match wins. The order is
// part of the classifier's contract: later rules overlap earlier ones.
var Rules = []Rule{
	{Happy, func(d Descriptors) bool { return d.Energy > 0.10 && d.Pitch > 2000 }},
	{Angry, func(d Descriptors) bool { return d.Energy > 0.08 && d.ZCR > 0.10 }},
	{Sad, func(d Descriptors) bool { return d.Energy < 0.05 }},
	{Surprise, func(d Descriptors) bool { return d.Pitch > 2200 }},
	{Fearful, func(d Descriptors) bool { return d.Energy < 0.07 && d.Pitch < 1800 }},
}

// Result is the outcome of a classification.
type Result struct {
	Primary Emotion             `json:"primary_emotion"`
	Scores  map[Emotion]float64 `json:"emotion_scores"`
}

// Known reports whether the result is a real classification rather than the
// Unknown sentinel.
func (r Result) Known() bool { return r.Primary != Unknown && r.Primary != "" }

// UnknownResult returns the sentinel result: Unknown with every score 0.
func UnknownResult() Result {
	scores := make(map[Emotion]float64, 6)
	for _, e := range Emotions() {
		scores[e] = 0
	}
	return Result{Primary: Unknown, Scores: scores}
}

// Classifier applies Rules. It holds no state and is safe for concurrent use.
type Classifier struct{}

func NewClassifier() *Classifier { return &Classifier{} }

// Classify maps an extraction to a result. A load failure or an empty
// feature vector yields the Unknown sentinel; a partial vector is classified
// with its missing descriptors treated as 0.
func (c *Classifier) Classify(x features.Extraction) Result {
	if x.Status == features.StatusLoadFailed || x.Waveform == nil || len(x.Features) == 0 {
		log.Warn().
			Str("status", x.Status.String()).
			Msg("No features to classify, emotion unknown")
		return UnknownResult()
	}
	return c.ClassifyFeatures(x.Features)
}

// ClassifyFeatures maps a feature vector to a result. It never panics; any
// internal failure yields the Unknown sentinel.
func (c *Classifier) ClassifyFeatures(v features.FeatureVector) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Err(fmt.Errorf("%v", r)).
				Msg("Emotion classification failed")
			res = UnknownResult()
		}
	}()

	if len(v) == 0 {
		return UnknownResult()
	}

	d := DescriptorsFrom(v)
	primary := Neutral
	for _, rule := range Rules {
		if rule.Match(d) {
			primary = rule.Label
			break
		}
	}

	scores := make(map[Emotion]float64, 6)
	for _, e := range Emotions() {
		scores[e] = BaselineScore
	}
	scores[primary] = PrimaryScore

	log.Debug().
		Float64("energy", d.Energy).
		Float64("pitch", d.Pitch).
		Float64("zcr", d.ZCR).
		Str("emotion", string(primary)).
		Msg("Classified emotion")

	return Result{Primary: primary, Scores: scores}
}
