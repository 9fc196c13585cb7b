package feed

// Window returns the inclusive range of rows kept mounted around center.
// An empty feed yields hi < lo.
func Window(center, length, radius int) (lo, hi int) {
	if length <= 0 {
		return 0, -1
	}
	if radius < 0 {
		radius = 0
	}
	if center < 0 {
		center = 0
	}
	if center >= length {
		center = length - 1
	}
	lo = max(center-radius, 0)
	hi = min(center+radius, length-1)
	return lo, hi
}

func inWindow(index, lo, hi int) bool {
	return index >= lo && index <= hi
}
