package locale

var roomTypeLabels = map[string]Text{
	"standard":     {TR: "Standart Oda", EN: "Standard Room"},
	"deluxe":       {TR: "Deluxe Oda", EN: "Deluxe Room"},
	"suite":        {TR: "Suit Oda", EN: "Suite Room"},
	"presidential": {TR: "Presidential Suit", EN: "Presidential Suite"},
}

// RoomTypeLabel returns the display name of a room type, or the raw type when unknown.
func RoomTypeLabel(roomType string, lang Language) string {
	if t, ok := roomTypeLabels[roomType]; ok {
		return t.Get(lang)
	}
	return roomType
}
