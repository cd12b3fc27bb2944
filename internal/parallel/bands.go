package parallel

// Band is a half-open row range [Y0, Y1).
type Band struct {
	Y0, Y1 int
}

// Rows returns the number of rows in the band.
func (b Band) Rows() int { return b.Y1 - b.Y0 }

// Bands splits height rows into at most n contiguous bands of at least
// minRows rows each. The bands cover [0, height) in order.
func Bands(height, n, minRows int) []Band {
	if height <= 0 {
		return nil
	}
	minRows = max(minRows, 1)
	n = max(min(n, height/minRows), 1)

	bands := make([]Band, 0, n)
	y := 0
	for i := range n {
		rows := (height - y) / (n - i)
		bands = append(bands, Band{Y0: y, Y1: y + rows})
		y += rows
	}
	return bands
}

// Rows runs fn over row bands of [0, height). A nil pool, or a height too
// small to split, runs fn once on the calling goroutine.
func (p *WorkerPool) Rows(height, minRows int, fn func(b Band)) {
	if height <= 0 {
		return
	}
	if p == nil || !p.IsRunning() {
		fn(Band{Y0: 0, Y1: height})
		return
	}

	bands := Bands(height, p.workers, minRows)
	if len(bands) == 1 {
		fn(bands[0])
		return
	}

	work := make([]func(), len(bands))
	for i, b := range bands {
		work[i] = func() { fn(b) }
	}
	p.ExecuteAll(work)
}
