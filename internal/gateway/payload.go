package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"strconv"

	"github.com/kigundalevi/carsawa/internal/model"
)

// ImageOps describes the image side of a listing save: new files to
// upload, server-side keys to delete, and whether untouched existing
// images are kept. Kept images are never re-uploaded.
type ImageOps struct {
	Uploads      []model.Upload
	Delete       []string
	KeepExisting bool
}

// carPayload is the one place the car wire encoding is decided: a plain
// JSON object when no binary payload is attached, multipart otherwise.
func carPayload(f model.CarFields, ops ImageOps) (payload, error) {
	if len(ops.Uploads) == 0 {
		body := map[string]any{
			"name":         f.Name,
			"make":         f.Make,
			"model":        f.Model,
			"year":         f.Year,
			"price":        f.Price,
			"mileage":      f.Mileage,
			"condition":    f.Condition,
			"transmission": f.Transmission,
			"engineSize":   f.EngineSize,
			"fuelType":     f.FuelType,
			"bodyType":     f.BodyType,
			"color":        f.Color,
			"status":       f.Status,
		}
		if len(ops.Delete) > 0 {
			body["imagesToDelete"] = ops.Delete
		}
		if ops.KeepExisting {
			body["keepExistingImages"] = true
		}
		return jsonPayload(body)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fields := map[string]string{
		"name":         f.Name,
		"make":         f.Make,
		"model":        f.Model,
		"year":         strconv.Itoa(f.Year),
		"price":        strconv.FormatInt(f.Price, 10),
		"mileage":      strconv.FormatInt(f.Mileage, 10),
		"condition":    string(f.Condition),
		"transmission": string(f.Transmission),
		"engineSize":   f.EngineSize,
		"fuelType":     string(f.FuelType),
		"bodyType":     string(f.BodyType),
		"color":        f.Color,
		"status":       string(f.Status),
	}
	if err := writeFields(w, fields); err != nil {
		return payload{}, err
	}
	for _, up := range ops.Uploads {
		fw, err := w.CreateFormFile("images", up.Filename)
		if err != nil {
			return payload{}, fmt.Errorf("multipart images: %w", err)
		}
		if _, err := fw.Write(up.Data); err != nil {
			return payload{}, fmt.Errorf("multipart images: %w", err)
		}
	}
	if len(ops.Delete) > 0 {
		del, err := json.Marshal(ops.Delete)
		if err != nil {
			return payload{}, err
		}
		if err := w.WriteField("imagesToDelete", string(del)); err != nil {
			return payload{}, err
		}
	}
	if ops.KeepExisting {
		if err := w.WriteField("keepExistingImages", "true"); err != nil {
			return payload{}, err
		}
	}
	if err := w.Close(); err != nil {
		return payload{}, err
	}
	return payload{contentType: w.FormDataContentType(), body: buf.Bytes()}, nil
}

// registrationPayload serializes a dealer registration. Registration is
// always multipart per the backend contract, image or not.
func registrationPayload(r model.Registration) (payload, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fields := map[string]string{
		"name":      r.Name,
		"email":     r.Email,
		"password":  r.Password,
		"phone":     r.Phone,
		"whatsapp":  r.WhatsApp,
		"location":  r.Location.Address,
		"latitude":  strconv.FormatFloat(r.Location.Latitude, 'f', -1, 64),
		"longitude": strconv.FormatFloat(r.Location.Longitude, 'f', -1, 64),
	}
	if err := writeFields(w, fields); err != nil {
		return payload{}, err
	}
	if r.ProfileImage != nil {
		fw, err := w.CreateFormFile("profileImage", r.ProfileImage.Filename)
		if err != nil {
			return payload{}, err
		}
		if _, err := fw.Write(r.ProfileImage.Data); err != nil {
			return payload{}, err
		}
	}
	if err := w.Close(); err != nil {
		return payload{}, err
	}
	return payload{contentType: w.FormDataContentType(), body: buf.Bytes()}, nil
}

// profilePayload serializes a partial profile update: JSON for plain
// field changes, multipart when a new profile image is attached. Only
// provided fields are sent.
func profilePayload(p model.ProfileUpdate) (payload, error) {
	fields := map[string]string{}
	setIf(fields, "name", p.Name)
	setIf(fields, "email", p.Email)
	setIf(fields, "password", p.Password)
	setIf(fields, "phone", p.Phone)
	setIf(fields, "whatsapp", p.WhatsApp)
	if p.Location != nil {
		fields["location"] = p.Location.Address
		fields["latitude"] = strconv.FormatFloat(p.Location.Latitude, 'f', -1, 64)
		fields["longitude"] = strconv.FormatFloat(p.Location.Longitude, 'f', -1, 64)
	}

	if p.ProfileImage == nil {
		body := make(map[string]any, len(fields))
		for k, v := range fields {
			body[k] = v
		}
		return jsonPayload(body)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := writeFields(w, fields); err != nil {
		return payload{}, err
	}
	fw, err := w.CreateFormFile("profileImage", p.ProfileImage.Filename)
	if err != nil {
		return payload{}, err
	}
	if _, err := fw.Write(p.ProfileImage.Data); err != nil {
		return payload{}, err
	}
	if err := w.Close(); err != nil {
		return payload{}, err
	}
	return payload{contentType: w.FormDataContentType(), body: buf.Bytes()}, nil
}

func writeFields(w *multipart.Writer, fields map[string]string) error {
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return fmt.Errorf("multipart field %s: %w", k, err)
		}
	}
	return nil
}

func setIf(m map[string]string, k, v string) {
	if v != "" {
		m[k] = v
	}
}
