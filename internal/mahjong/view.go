package mahjong

// View is a read-only snapshot of the round as one seat may see it. Other
// seats' concealed tiles never appear in it.
type View struct {
	Seat           Seat                 `json:"seat"`
	Turn           Seat                 `json:"turn"`
	Hand           []Tile               `json:"hand"`
	Drawn          Tile                 `json:"drawn"`
	Melds          [SeatCount][]Meld    `json:"melds"`
	Discards       [SeatCount][]Discard `json:"discards"`
	Reached        [SeatCount]bool      `json:"reached"`
	WallRemaining  int                  `json:"wall_remaining"`
	DoraIndicators []Tile               `json:"dora_indicators"`
}

// Win describes a confirmed winning hand. Value is left to scoring.
type Win struct {
	Seat   Seat   `json:"seat"`
	From   Seat   `json:"from"`
	Tile   Tile   `json:"tile"`
	Tsumo  bool   `json:"tsumo"`
	Robbed bool   `json:"robbed_kan"`
	Hand   []Tile `json:"hand"`
	Melds  []Meld `json:"melds"`
}
