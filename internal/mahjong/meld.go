package mahjong

// MeldKind distinguishes the called and concealed sets a seat can expose.
type MeldKind string

const (
	MeldChi       MeldKind = "chi"
	MeldPon       MeldKind = "pon"
	MeldOpenKan   MeldKind = "open_kan"
	MeldClosedKan MeldKind = "closed_kan"
	MeldAddedKan  MeldKind = "added_kan"
)

func (k MeldKind) IsKan() bool {
	return k == MeldOpenKan || k == MeldClosedKan || k == MeldAddedKan
}

// Meld is the effect descriptor broadcast after a call or kan.
type Meld struct {
	Kind   MeldKind `json:"kind"`
	Tiles  []Tile   `json:"tiles"`
	Called Tile     `json:"called"`
	From   Seat     `json:"from"`
}

// Open reports whether the meld breaks hand concealment.
func (m Meld) Open() bool { return m.Kind != MeldClosedKan }

// Discard is one entry of a seat's river.
type Discard struct {
	Tile      Tile `json:"tile"`
	Tsumogiri bool `json:"tsumogiri"`
	Reach     bool `json:"reach"`
	Called    bool `json:"called"`
}
