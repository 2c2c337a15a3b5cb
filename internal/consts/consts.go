package consts

const (
	Tolerance        = 1e-9 // Relative tolerance for phasor and frequency comparison
	SingularityRatio = 1e12 // Largest accepted |x_j|*G_j/|b| before a system counts as singular
)
