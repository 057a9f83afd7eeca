package attendance

type ValidationError struct {
	Msg string
}

func (e ValidationError) Error() string {
	return e.Msg
}

// PunchInDTO carries the geolocation captured by the client on punch-in.
type PunchInDTO struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Location  string  `json:"location"`
}

func (d PunchInDTO) Validate() error {
	if d.Latitude < -90 || d.Latitude > 90 {
		return ValidationError{Msg: "latitude out of range"}
	}
	if d.Longitude < -180 || d.Longitude > 180 {
		return ValidationError{Msg: "longitude out of range"}
	}
	return nil
}

// ListFilterDTO narrows the attendance listing.
type ListFilterDTO struct {
	Username string `json:"user_name"`
	FromDay  string `json:"from_day"`
	ToDay    string `json:"to_day"`
	Limit    int    `json:"limit"`
	Offset   int    `json:"offset"`
}
