package features

import "fmt"

// Feature names. Every successful extraction contains all of them.
const (
	ZCRMean               = "zcr_mean"
	RMSMean               = "rmse_mean"
	SpectralCentroidMean  = "spectral_centroid_mean"
	SpectralBandwidthMean = "spectral_bandwidth_mean"
	SpectralRolloffMean   = "spectral_rolloff_mean"
)

// MFCCName returns the feature name of the i-th MFCC mean, 1 based.
func MFCCName(i int) string {
	return fmt.Sprintf("mfcc%d_mean", i)
}

// Names returns the 18 feature names in extraction order.
func Names() []string {
	names := []string{ZCRMean, RMSMean}
	for i := 1; i <= NumMFCC; i++ {
		names = append(names, MFCCName(i))
	}
	return append(names, SpectralCentroidMean, SpectralBandwidthMean, SpectralRolloffMean)
}

// FeatureVector maps feature names to scalar descriptors.
type FeatureVector map[string]float64

// Get returns the named feature, or 0 when it is missing.
func (v FeatureVector) Get(name string) float64 {
	return v[name]
}

// Complete reports whether every feature in Names() is present.
func (v FeatureVector) Complete() bool {
	for _, name := range Names() {
		if _, ok := v[name]; !ok {
			return false
		}
	}
	return true
}
