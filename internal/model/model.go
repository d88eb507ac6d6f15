// Package model defines domain entities shared by the gateway, session,
// editor and inventory layers.
package model

import (
	"fmt"
	"time"
)

// CarStatus is the lifecycle state of a listing. Exactly one is active
// at a time; deletion removes the listing entirely and is not a status.
type CarStatus string

const (
	StatusAvailable CarStatus = "Available"
	StatusSold      CarStatus = "Sold"
	StatusReserved  CarStatus = "Reserved"
)

// Valid reports whether s is one of the known statuses.
func (s CarStatus) Valid() bool {
	switch s {
	case StatusAvailable, StatusSold, StatusReserved:
		return true
	}
	return false
}

// Condition describes the wear class of a car.
type Condition string

const (
	ConditionNew       Condition = "New"
	ConditionUsed      Condition = "Used"
	ConditionCertified Condition = "Certified Pre-Owned"
)

func (c Condition) Valid() bool {
	switch c {
	case ConditionNew, ConditionUsed, ConditionCertified:
		return true
	}
	return false
}

// Transmission is the gearbox type.
type Transmission string

const (
	TransmissionAutomatic     Transmission = "Automatic"
	TransmissionManual        Transmission = "Manual"
	TransmissionCVT           Transmission = "CVT"
	TransmissionSemiAutomatic Transmission = "Semi-Automatic"
)

func (t Transmission) Valid() bool {
	switch t {
	case TransmissionAutomatic, TransmissionManual, TransmissionCVT, TransmissionSemiAutomatic:
		return true
	}
	return false
}

// FuelType is the energy source.
type FuelType string

const (
	FuelPetrol   FuelType = "Petrol"
	FuelDiesel   FuelType = "Diesel"
	FuelElectric FuelType = "Electric"
	FuelHybrid   FuelType = "Hybrid"
	FuelCNG      FuelType = "CNG"
	FuelLPG      FuelType = "LPG"
)

func (f FuelType) Valid() bool {
	switch f {
	case FuelPetrol, FuelDiesel, FuelElectric, FuelHybrid, FuelCNG, FuelLPG:
		return true
	}
	return false
}

// BodyType is the chassis style.
type BodyType string

const (
	BodySedan       BodyType = "Sedan"
	BodySUV         BodyType = "SUV"
	BodyHatchback   BodyType = "Hatchback"
	BodyCoupe       BodyType = "Coupe"
	BodyConvertible BodyType = "Convertible"
	BodyWagon       BodyType = "Wagon"
	BodyVan         BodyType = "Van"
	BodyTruck       BodyType = "Truck"
)

func (b BodyType) Valid() bool {
	switch b {
	case BodySedan, BodySUV, BodyHatchback, BodyCoupe, BodyConvertible, BodyWagon, BodyVan, BodyTruck:
		return true
	}
	return false
}

// Location is a dealer's physical address with coordinates.
type Location struct {
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Validate checks coordinate ranges. Called before any network request
// that carries a location, so bad coordinates never leave the client.
func (l Location) Validate() error {
	if l.Latitude < -90 || l.Latitude > 90 {
		return fmt.Errorf("latitude %v out of range [-90, 90]", l.Latitude)
	}
	if l.Longitude < -180 || l.Longitude > 180 {
		return fmt.Errorf("longitude %v out of range [-180, 180]", l.Longitude)
	}
	return nil
}

// Dealer is the authenticated account that owns listings.
type Dealer struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Email        string   `json:"email"`
	Phone        string   `json:"phone"`
	WhatsApp     string   `json:"whatsapp"`
	Location     Location `json:"location"`
	ProfileImage string   `json:"profileImage,omitempty"`
}

// ImageRef is a server-side image attached to a listing: an opaque id
// (may be empty when the backend keys images by URL) and a fully
// qualified display URL.
type ImageRef struct {
	ID  string `json:"id,omitempty"`
	URL string `json:"url"`
}

// Key returns the value the backend uses to address this image in a
// deletion set: the id when present, otherwise the URL.
func (r ImageRef) Key() string {
	if r.ID != "" {
		return r.ID
	}
	return r.URL
}

// CarFields are the editable attributes of a listing, shared by the
// create and edit paths.
type CarFields struct {
	Name         string       `json:"name"`
	Make         string       `json:"make"`
	Model        string       `json:"model"`
	Year         int          `json:"year"`
	Price        int64        `json:"price"`
	Mileage      int64        `json:"mileage"`
	Condition    Condition    `json:"condition"`
	Transmission Transmission `json:"transmission"`
	EngineSize   string       `json:"engineSize"`
	FuelType     FuelType     `json:"fuelType"`
	BodyType     BodyType     `json:"bodyType"`
	Color        string       `json:"color"`
	Status       CarStatus    `json:"status"`
}

// YearRange bounds accepted listing years relative to now.
const YearRange = 30

// Validate enforces the submit-time field rules. Image-count rules live
// in the editor since images are not part of CarFields.
func (f CarFields) Validate(now time.Time) error {
	switch {
	case f.Name == "":
		return fmt.Errorf("name is required")
	case f.Make == "":
		return fmt.Errorf("make is required")
	case f.Model == "":
		return fmt.Errorf("model is required")
	case f.Price <= 0:
		return fmt.Errorf("price must be greater than zero")
	case f.EngineSize == "":
		return fmt.Errorf("engine size is required")
	case f.Color == "":
		return fmt.Errorf("color is required")
	}
	maxYear := now.Year() + 1
	if f.Year < now.Year()-YearRange || f.Year > maxYear {
		return fmt.Errorf("year %d out of range [%d, %d]", f.Year, now.Year()-YearRange, maxYear)
	}
	if !f.Condition.Valid() {
		return fmt.Errorf("unknown condition %q", f.Condition)
	}
	if !f.Transmission.Valid() {
		return fmt.Errorf("unknown transmission %q", f.Transmission)
	}
	if !f.FuelType.Valid() {
		return fmt.Errorf("unknown fuel type %q", f.FuelType)
	}
	if !f.BodyType.Valid() {
		return fmt.Errorf("unknown body type %q", f.BodyType)
	}
	if !f.Status.Valid() {
		return fmt.Errorf("unknown status %q", f.Status)
	}
	return nil
}

// Car is a listing as confirmed by the server.
type Car struct {
	ID        string
	DealerID  string
	Fields    CarFields
	Images    []ImageRef
	CreatedAt time.Time
}

// Registration carries everything needed to create a dealer account.
type Registration struct {
	Name         string
	Email        string
	Password     string
	Phone        string
	WhatsApp     string
	Location     Location
	ProfileImage *Upload // optional
}

// Validate checks required fields and coordinate ranges locally.
func (r Registration) Validate() error {
	if r.Name == "" || r.Email == "" || r.Password == "" {
		return fmt.Errorf("name, email and password are required")
	}
	return r.Location.Validate()
}

// ProfileUpdate carries the fields of a partial profile edit. Empty
// strings mean "leave unchanged"; a nil Location means unchanged.
type ProfileUpdate struct {
	Name         string
	Email        string
	Password     string
	Phone        string
	WhatsApp     string
	Location     *Location
	ProfileImage *Upload
}

// Validate checks coordinate ranges when a location is included.
func (p ProfileUpdate) Validate() error {
	if p.Location != nil {
		return p.Location.Validate()
	}
	return nil
}

// Upload is an in-memory binary payload destined for a multipart field.
type Upload struct {
	Filename string
	Data     []byte
}
