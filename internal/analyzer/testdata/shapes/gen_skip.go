package shapes

type Skipped struct{}
