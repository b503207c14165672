package usage

// Usage is a point-in-time view of a client's free-tier consumption.
type Usage struct {
	Used      int `json:"used"`
	Limit     int `json:"limit"`
	Remaining int `json:"remaining"`
}

func snapshot(used, limit int) Usage {
	return Usage{Used: used, Limit: limit, Remaining: remaining(used, limit)}
}

func remaining(used, limit int) int {
	if r := limit - used; r > 0 {
		return r
	}
	return 0
}
