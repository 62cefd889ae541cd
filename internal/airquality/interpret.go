package airquality

// Interpret maps an AQI level to the message shown to users.
// Total over all integers: anything outside 1..5 maps to the
// unavailable message.
func Interpret(level int) string {
	switch level {
	case 1:
		return "🌿 Yes, you can breathe easy."
	case 2:
		return "🙂 Air quality is fair. Enjoy your day!"
	case 3:
		return "😐 The air is a bit polluted. Maybe avoid heavy outdoor activity."
	case 4:
		return "😷 The air is poor. Sensitive people should stay inside."
	case 5:
		return "☠️ Warning: Very poor air quality. Avoid going outside."
	default:
		return "🤷 Air quality data unavailable."
	}
}
