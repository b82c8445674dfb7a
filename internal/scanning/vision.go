package scanning

import (
	"context"
	"fmt"
	"image"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/api/option"
)

// Vision implements the Scanner interface using Google Cloud Vision text
// detection. The client is safe for concurrent use.
type Vision struct {
	client *vision.ImageAnnotatorClient
}

// NewVision creates a Cloud Vision scanner. With an empty credentialsFile the
// application default credentials are used.
func NewVision(ctx context.Context, credentialsFile string) (*Vision, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating vision client: %w", err)
	}
	return &Vision{client: client}, nil
}

// Name returns the backend name
func (v *Vision) Name() string {
	return "vision"
}

// ScanText runs TEXT_DETECTION on the image. The first annotation returned
// by the API is the whole text block; the word annotations that follow it
// become the fragments.
func (v *Vision) ScanText(ctx context.Context, pngData []byte) ([]Fragment, error) {
	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image: &visionpb.Image{Content: pngData},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_TEXT_DETECTION},
				},
			},
		},
	}

	resp, err := v.client.BatchAnnotateImages(ctx, req)
	if err != nil {
		return nil, scanError(v.Name(), "annotating image", err)
	}
	if len(resp.GetResponses()) == 0 {
		return nil, scanError(v.Name(), "annotating image", fmt.Errorf("no response from Vision API"))
	}

	imgResp := resp.GetResponses()[0]
	if imgResp.GetError() != nil {
		return nil, scanError(v.Name(), "annotating image", fmt.Errorf("vision API error: %s", imgResp.GetError().GetMessage()))
	}

	return annotationFragments(imgResp.GetTextAnnotations()), nil
}

func annotationFragments(annotations []*visionpb.EntityAnnotation) []Fragment {
	if len(annotations) < 2 {
		return nil
	}
	fragments := make([]Fragment, 0, len(annotations)-1)
	for _, a := range annotations[1:] {
		if a.GetDescription() == "" {
			continue
		}
		fragments = append(fragments, Fragment{
			Text:       a.GetDescription(),
			Bounds:     polyBounds(a.GetBoundingPoly()),
			Confidence: float64(a.GetConfidence()),
		})
	}
	return fragments
}

// polyBounds returns the axis-aligned rectangle enclosing a bounding polygon
func polyBounds(poly *visionpb.BoundingPoly) image.Rectangle {
	vertices := poly.GetVertices()
	if len(vertices) == 0 {
		return image.Rectangle{}
	}
	minX, minY := int(vertices[0].GetX()), int(vertices[0].GetY())
	maxX, maxY := minX, minY
	for _, v := range vertices[1:] {
		minX = min(minX, int(v.GetX()))
		minY = min(minY, int(v.GetY()))
		maxX = max(maxX, int(v.GetX()))
		maxY = max(maxY, int(v.GetY()))
	}
	return image.Rect(minX, minY, maxX, maxY)
}

// Close closes the underlying Vision client
func (v *Vision) Close() error {
	if v.client != nil {
		return v.client.Close()
	}
	return nil
}
