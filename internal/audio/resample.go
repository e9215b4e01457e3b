package audio

// Resample converts samples from fromRate to toRate using linear
// interpolation. Speech through the pipeline's band-pass has little energy
// near Nyquist, so interpolation artefacts stay below the noise floor.
// When the rates match the input slice is returned unchanged.
func Resample(samples []float64, fromRate, toRate int) []float64 {
	if fromRate == toRate || fromRate <= 0 || toRate <= 0 {
		return samples
	}

	ratio := float64(fromRate) / float64(toRate)
	newLength := int(float64(len(samples)) / ratio)
	resampled := make([]float64, newLength)

	for i := 0; i < newLength; i++ {
		pos := float64(i) * ratio
		index := int(pos)
		frac := pos - float64(index)

		if index+1 < len(samples) {
			resampled[i] = samples[index]*(1-frac) + samples[index+1]*frac
		} else if index < len(samples) {
			resampled[i] = samples[index]
		}
	}

	return resampled
}
