package ui

func ProgressBar(width int, progress float64) string {
	if width <= 0 {
		return ""
	}
	progress = min(max(progress, 0), 1)
	dot := min(int(float64(width)*progress), width-1)
	out := make([]rune, 0, width)
	for i := 0; i < width; i++ {
		if i == dot {
			out = append(out, '🔘')
		} else {
			out = append(out, '▬')
		}
	}
	return string(out)
}
