package gateway

import (
	"context"
	"net/http"

	"github.com/kigundalevi/carsawa/internal/convert"
	"github.com/kigundalevi/carsawa/internal/model"
)

// DealerCars lists the given dealer's inventory.
func (c *Client) DealerCars(ctx context.Context, dealerID string) ([]model.Car, error) {
	body, err := c.do(ctx, http.MethodGet, "/cars/dealer/"+dealerID, payload{})
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, nil
	}
	return convert.DecodeCars(body, c.origin)
}

// Car fetches one listing by id.
func (c *Client) Car(ctx context.Context, id string) (model.Car, error) {
	body, err := c.do(ctx, http.MethodGet, "/cars/"+id, payload{})
	if err != nil {
		return model.Car{}, err
	}
	return convert.DecodeCar(body, c.origin)
}

// CreateCar submits a new listing with its images.
func (c *Client) CreateCar(ctx context.Context, f model.CarFields, uploads []model.Upload) (model.Car, error) {
	p, err := carPayload(f, ImageOps{Uploads: uploads})
	if err != nil {
		return model.Car{}, err
	}
	body, err := c.do(ctx, http.MethodPost, "/cars/create", p)
	if err != nil {
		return model.Car{}, err
	}
	if len(body) == 0 {
		return model.Car{}, nil
	}
	return convert.DecodeCar(body, c.origin)
}

// UpdateCar submits a listing edit as an additive/subtractive diff:
// new uploads, a deletion set, and the keep-existing flag. Kept images
// never travel over the wire again.
func (c *Client) UpdateCar(ctx context.Context, id string, f model.CarFields, ops ImageOps) (model.Car, error) {
	p, err := carPayload(f, ops)
	if err != nil {
		return model.Car{}, err
	}
	body, err := c.do(ctx, http.MethodPut, "/cars/"+id, p)
	if err != nil {
		return model.Car{}, err
	}
	if len(body) == 0 {
		return model.Car{}, nil
	}
	return convert.DecodeCar(body, c.origin)
}

// UpdateStatus transitions a listing's status.
func (c *Client) UpdateStatus(ctx context.Context, id string, status model.CarStatus) (model.Car, error) {
	p, err := jsonPayload(map[string]model.CarStatus{"status": status})
	if err != nil {
		return model.Car{}, err
	}
	body, err := c.do(ctx, http.MethodPut, "/cars/"+id+"/status", p)
	if err != nil {
		return model.Car{}, err
	}
	if len(body) == 0 {
		return model.Car{}, nil
	}
	return convert.DecodeCar(body, c.origin)
}

// DeleteCar removes a listing permanently.
func (c *Client) DeleteCar(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/cars/"+id, payload{})
	return err
}
