package convert

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kigundalevi/carsawa/internal/model"
)

const origin = "https://api.example.test"

func TestNormalizeImage_String(t *testing.T) {
	ref, err := NormalizeImage(json.RawMessage(`"https://cdn.example.test/a.jpg"`), origin)
	require.NoError(t, err)
	require.Equal(t, model.ImageRef{URL: "https://cdn.example.test/a.jpg"}, ref)
}

func TestNormalizeImage_RelativePathQualified(t *testing.T) {
	for _, raw := range []string{`"/uploads/a.jpg"`, `"uploads/a.jpg"`} {
		ref, err := NormalizeImage(json.RawMessage(raw), origin)
		require.NoError(t, err)
		require.Equal(t, "https://api.example.test/uploads/a.jpg", ref.URL, "input %s", raw)
	}
}

func TestNormalizeImage_NoDoubleSlash(t *testing.T) {
	ref, err := NormalizeImage(json.RawMessage(`"/a.jpg"`), origin+"/")
	require.NoError(t, err)
	require.Equal(t, "https://api.example.test/a.jpg", ref.URL)
}

func TestNormalizeImage_ObjectVariants(t *testing.T) {
	cases := map[string]string{
		`{"url":"/u.jpg"}`:                     "https://api.example.test/u.jpg",
		`{"path":"/p.jpg"}`:                    "https://api.example.test/p.jpg",
		`{"secure_url":"https://s.test/s.jpg"}`: "https://s.test/s.jpg",
	}
	for raw, want := range cases {
		ref, err := NormalizeImage(json.RawMessage(raw), origin)
		require.NoError(t, err, raw)
		require.Equal(t, want, ref.URL, raw)
	}
}

func TestNormalizeImage_IDVariants(t *testing.T) {
	ref, err := NormalizeImage(json.RawMessage(`{"_id":"img-1","url":"/a.jpg"}`), origin)
	require.NoError(t, err)
	require.Equal(t, "img-1", ref.ID)

	ref, err = NormalizeImage(json.RawMessage(`{"id":"img-2","url":"/a.jpg"}`), origin)
	require.NoError(t, err)
	require.Equal(t, "img-2", ref.ID)
}

func TestNormalizeImage_UnknownShapeIsError(t *testing.T) {
	for _, raw := range []string{`{}`, `{"foo":"bar"}`, `""`, `42`, `null`} {
		_, err := NormalizeImage(json.RawMessage(raw), origin)
		require.Error(t, err, "input %s must not decode", raw)
	}
}

func TestDecodeCar(t *testing.T) {
	doc := `{
		"_id": "car-1",
		"name": "Toyota Land Cruiser",
		"make": "Toyota",
		"model": "Land Cruiser",
		"year": 2020,
		"price": 4500000,
		"mileage": 45000,
		"condition": "Used",
		"transmission": "Automatic",
		"engineSize": "4.0L",
		"fuelType": "Petrol",
		"bodyType": "SUV",
		"color": "Black",
		"status": "Available",
		"dealer": "dealer-1",
		"images": ["/uploads/1.jpg", {"_id":"i2","url":"https://cdn.test/2.jpg"}],
		"createdAt": "2026-02-15T12:00:00Z"
	}`
	car, err := DecodeCar([]byte(doc), origin)
	require.NoError(t, err)
	require.Equal(t, "car-1", car.ID)
	require.Equal(t, "dealer-1", car.DealerID)
	require.Equal(t, model.StatusAvailable, car.Fields.Status)
	require.Len(t, car.Images, 2)
	require.Equal(t, "https://api.example.test/uploads/1.jpg", car.Images[0].URL)
	require.Equal(t, "i2", car.Images[1].ID)
	require.Equal(t, 2026, car.CreatedAt.Year())
}

func TestDecodeCar_MissingID(t *testing.T) {
	_, err := DecodeCar([]byte(`{"name":"x"}`), origin)
	require.Error(t, err)
}

func TestDecodeCars_BareAndEnvelope(t *testing.T) {
	item := `{"_id":"c1","images":[]}`

	cars, err := DecodeCars([]byte(`[`+item+`]`), origin)
	require.NoError(t, err)
	require.Len(t, cars, 1)

	cars, err = DecodeCars([]byte(`{"cars":[`+item+`]}`), origin)
	require.NoError(t, err)
	require.Len(t, cars, 1)
	require.Equal(t, "c1", cars[0].ID)
}

func TestDecodeAuth(t *testing.T) {
	doc := `{
		"_id": "dealer-1",
		"name": "Mombasa Motors",
		"email": "sales@mombasamotors.test",
		"phone": "+254700000000",
		"whatsapp": "+254700000000",
		"location": {"address": "Moi Avenue", "latitude": -4.05, "longitude": 39.66},
		"token": "tok-123"
	}`
	d, tok, err := DecodeAuth([]byte(doc))
	require.NoError(t, err)
	require.Equal(t, "tok-123", tok)
	require.Equal(t, "dealer-1", d.ID)
	require.InDelta(t, -4.05, d.Location.Latitude, 1e-9)
}

func TestDecodeDealer_StringLocation(t *testing.T) {
	d, err := DecodeDealer([]byte(`{"_id":"d1","name":"N","location":"Nairobi, Kenya"}`))
	require.NoError(t, err)
	require.Equal(t, "Nairobi, Kenya", d.Location.Address)
}
