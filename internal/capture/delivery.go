package capture

import (
	"context"
	"time"

	"depthcapture/internal/client"
	"depthcapture/internal/service/storage"
)

// Encoded is a rasterized frame ready for delivery.
type Encoded struct {
	PNG     []byte
	DataURL string
}

// Delivered describes where a delivery put the artifact.
type Delivered struct {
	Filename string
	Location string
	Size     int64
}

// Delivery persists an encoded frame.
type Delivery interface {
	Name() string
	Deliver(ctx context.Context, enc *Encoded) (*Delivered, error)
}

// Chain tries each delivery in order; the first success wins.
type Chain []Delivery

// Deliver returns the name of the delivery that succeeded, or a CaptureError
// listing every failed attempt.
func (ch Chain) Deliver(ctx context.Context, enc *Encoded) (string, *Delivered, error) {
	capErr := &CaptureError{}
	for _, d := range ch {
		out, err := d.Deliver(ctx, enc)
		if err == nil {
			return d.Name(), out, nil
		}
		capErr.Attempts = append(capErr.Attempts, Attempt{Delivery: d.Name(), Err: err})
	}
	return "", nil, capErr
}

// ServiceDelivery posts the data URL to the capture service, which names the
// artifact.
type ServiceDelivery struct {
	Client *client.Client
}

func (d *ServiceDelivery) Name() string { return "service" }

func (d *ServiceDelivery) Deliver(ctx context.Context, enc *Encoded) (*Delivered, error) {
	info, err := d.Client.CaptureBase64(ctx, enc.DataURL, "")
	if err != nil {
		return nil, err
	}
	return &Delivered{Filename: info.Filename, Location: info.Path, Size: info.Size}, nil
}

// LocalSaveDelivery writes the PNG bytes into a local directory under a
// freshly generated name.
type LocalSaveDelivery struct {
	Store *storage.ArtifactStore
	Now   func() time.Time
}

func (d *LocalSaveDelivery) Name() string { return "local" }

func (d *LocalSaveDelivery) Deliver(_ context.Context, enc *Encoded) (*Delivered, error) {
	now := time.Now
	if d.Now != nil {
		now = d.Now
	}

	name := storage.GenerateFilename(now())
	size, err := d.Store.Write(name, enc.PNG)
	if err != nil {
		return nil, err
	}
	return &Delivered{Filename: name, Location: d.Store.Path(name), Size: size}, nil
}
