package options

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/erraggy/specbuild/oaserrors"
)

func TestRequireOne(t *testing.T) {
	tests := []struct {
		name    string
		inputs  map[string]string
		wantErr string
	}{
		{name: "one set", inputs: map[string]string{"file": "a.yaml", "url": ""}},
		{name: "none set", inputs: map[string]string{"file": "", "url": ""}, wantErr: "configuration error for spec: exactly one of file, url must be set"},
		{name: "two set", inputs: map[string]string{"file": "a", "url": "b", "content": ""}, wantErr: "exactly one of content, file, url must be set, got file and url"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := RequireOne("spec", tt.inputs)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, oaserrors.ErrConfig)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
