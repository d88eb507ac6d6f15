// Package convert decodes backend wire JSON into domain entities.
//
// The backend is loose about shapes: ids arrive as "id" or "_id",
// dealer lists arrive bare or wrapped in {"cars": [...]}, and images
// arrive as plain strings or as objects keyed url/path/secure_url.
// Everything is normalized here so upper layers see one shape.
package convert

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/kigundalevi/carsawa/internal/model"
)

// wireCar mirrors the backend car document.
type wireCar struct {
	ID        string            `json:"id"`
	AltID     string            `json:"_id"`
	Name      string            `json:"name"`
	Make      string            `json:"make"`
	Model     string            `json:"model"`
	Year      int               `json:"year"`
	Price     int64             `json:"price"`
	Mileage   int64             `json:"mileage"`
	Condition string            `json:"condition"`
	Transmiss string            `json:"transmission"`
	Engine    string            `json:"engineSize"`
	Fuel      string            `json:"fuelType"`
	Body      string            `json:"bodyType"`
	Color     string            `json:"color"`
	Status    string            `json:"status"`
	Dealer    string            `json:"dealer"`
	DealerID  string            `json:"dealerId"`
	Images    []json.RawMessage `json:"images"`
	CreatedAt string            `json:"createdAt"`
}

// wireImage covers the object forms an image reference arrives in.
type wireImage struct {
	ID        string `json:"id"`
	AltID     string `json:"_id"`
	URL       string `json:"url"`
	Path      string `json:"path"`
	SecureURL string `json:"secure_url"`
}

// NormalizeImage decodes one image reference. Accepted inputs are a
// bare string or an object carrying url, path or secure_url; anything
// else is a decode error rather than a silently empty URL. Relative
// paths are qualified against origin without doubling separators.
func NormalizeImage(raw json.RawMessage, origin string) (model.ImageRef, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == "" {
			return model.ImageRef{}, fmt.Errorf("empty image reference")
		}
		return model.ImageRef{URL: absoluteURL(s, origin)}, nil
	}

	var w wireImage
	if err := json.Unmarshal(raw, &w); err != nil {
		return model.ImageRef{}, fmt.Errorf("undecodable image reference: %w", err)
	}
	u := w.URL
	if u == "" {
		u = w.Path
	}
	if u == "" {
		u = w.SecureURL
	}
	if u == "" {
		return model.ImageRef{}, fmt.Errorf("image reference has none of url/path/secure_url")
	}
	id := w.ID
	if id == "" {
		id = w.AltID
	}
	return model.ImageRef{ID: id, URL: absoluteURL(u, origin)}, nil
}

func absoluteURL(u, origin string) string {
	if strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
		return u
	}
	return strings.TrimRight(origin, "/") + "/" + strings.TrimLeft(u, "/")
}

// DecodeCar decodes a single car document.
func DecodeCar(data []byte, origin string) (model.Car, error) {
	var w wireCar
	if err := json.Unmarshal(data, &w); err != nil {
		return model.Car{}, fmt.Errorf("decode car: %w", err)
	}
	return fromWireCar(w, origin)
}

// DecodeCars decodes a car list, accepting both a bare JSON array and a
// {"cars": [...]} envelope.
func DecodeCars(data []byte, origin string) ([]model.Car, error) {
	var arr []json.RawMessage
	if err := json.Unmarshal(data, &arr); err != nil {
		var env struct {
			Cars []json.RawMessage `json:"cars"`
		}
		if err := json.Unmarshal(data, &env); err != nil {
			return nil, fmt.Errorf("decode car list: %w", err)
		}
		arr = env.Cars
	}
	out := make([]model.Car, 0, len(arr))
	for i, raw := range arr {
		c, err := DecodeCar(raw, origin)
		if err != nil {
			return nil, fmt.Errorf("car[%d]: %w", i, err)
		}
		out = append(out, c)
	}
	return out, nil
}

func fromWireCar(w wireCar, origin string) (model.Car, error) {
	id := w.ID
	if id == "" {
		id = w.AltID
	}
	if id == "" {
		return model.Car{}, fmt.Errorf("car document missing id")
	}
	dealer := w.Dealer
	if dealer == "" {
		dealer = w.DealerID
	}
	images := make([]model.ImageRef, 0, len(w.Images))
	for i, raw := range w.Images {
		ref, err := NormalizeImage(raw, origin)
		if err != nil {
			return model.Car{}, fmt.Errorf("image[%d]: %w", i, err)
		}
		images = append(images, ref)
	}
	var created time.Time
	if w.CreatedAt != "" {
		if t, err := time.Parse(time.RFC3339, w.CreatedAt); err == nil {
			created = t
		}
	}
	return model.Car{
		ID:       id,
		DealerID: dealer,
		Fields: model.CarFields{
			Name:         w.Name,
			Make:         w.Make,
			Model:        w.Model,
			Year:         w.Year,
			Price:        w.Price,
			Mileage:      w.Mileage,
			Condition:    model.Condition(w.Condition),
			Transmission: model.Transmission(w.Transmiss),
			EngineSize:   w.Engine,
			FuelType:     model.FuelType(w.Fuel),
			BodyType:     model.BodyType(w.Body),
			Color:        w.Color,
			Status:       model.CarStatus(w.Status),
		},
		Images:    images,
		CreatedAt: created,
	}, nil
}

// wireDealer mirrors the backend user document. Location may be a bare
// address string or a full object.
type wireDealer struct {
	ID       string          `json:"id"`
	AltID    string          `json:"_id"`
	Name     string          `json:"name"`
	Email    string          `json:"email"`
	Phone    string          `json:"phone"`
	WhatsApp string          `json:"whatsapp"`
	Location json.RawMessage `json:"location"`
	Profile  string          `json:"profileImage"`
	Token    string          `json:"token"`
}

// DecodeDealer decodes a user document (e.g. the /auth/me response).
func DecodeDealer(data []byte) (model.Dealer, error) {
	d, _, err := DecodeAuth(data)
	return d, err
}

// DecodeAuth decodes a login/register response: user fields plus the
// bearer token.
func DecodeAuth(data []byte) (model.Dealer, string, error) {
	var w wireDealer
	if err := json.Unmarshal(data, &w); err != nil {
		return model.Dealer{}, "", fmt.Errorf("decode dealer: %w", err)
	}
	id := w.ID
	if id == "" {
		id = w.AltID
	}
	if id == "" {
		return model.Dealer{}, "", fmt.Errorf("dealer document missing id")
	}
	loc, err := decodeLocation(w.Location)
	if err != nil {
		return model.Dealer{}, "", err
	}
	return model.Dealer{
		ID:           id,
		Name:         w.Name,
		Email:        w.Email,
		Phone:        w.Phone,
		WhatsApp:     w.WhatsApp,
		Location:     loc,
		ProfileImage: w.Profile,
	}, w.Token, nil
}

func decodeLocation(raw json.RawMessage) (model.Location, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return model.Location{}, nil
	}
	var addr string
	if err := json.Unmarshal(raw, &addr); err == nil {
		return model.Location{Address: addr}, nil
	}
	var loc model.Location
	if err := json.Unmarshal(raw, &loc); err != nil {
		return model.Location{}, fmt.Errorf("undecodable location: %w", err)
	}
	return loc, nil
}
