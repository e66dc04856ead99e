package capture

import "math"

const fullScale = 32768.0

// Level computes the normalized root-mean-square loudness of a frame.
// The result is in [0, 1]; an empty frame reports 0.
func Level(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum/float64(len(samples))) / fullScale
}
