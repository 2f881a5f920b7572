package callback

import (
	"context"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/h2non/gock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestSender_Send(t *testing.T) {
	tests := []struct {
		name           string
		mockResponse   func()
		expectedError  bool
		expectedStatus int
		expectedErrMsg string
		expectTimeout  bool
	}{
		{
			name: "Success",
			mockResponse: func() {
				gock.New("http://example.com").
					Post("/callback").
					MatchType("json").
					JSON(map[string]string{"payment_key": "pk_1", "status": "success"}).
					Reply(200).
					JSON(map[string]string{"status": "ok"})
			},
		},
		{
			name: "Accepted",
			mockResponse: func() {
				gock.New("http://example.com").
					Post("/callback").
					Reply(202)
			},
		},
		{
			name: "Error",
			mockResponse: func() {
				gock.New("http://example.com").
					Post("/callback").
					Reply(500).
					JSON(map[string]string{"error": "internal server error"})
			},
			expectedError:  true,
			expectedStatus: 500,
		},
		{
			name: "Redirect is not success",
			mockResponse: func() {
				gock.New("http://example.com").
					Post("/callback").
					Reply(304)
			},
			expectedError:  true,
			expectedStatus: 304,
		},
		{
			name: "Timeout",
			mockResponse: func() {
				gock.New("http://example.com").
					Post("/callback").
					Reply(200).
					Delay(2 * time.Second)
			},
			expectedError: true,
			expectTimeout: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer gock.Off()
			tt.mockResponse()

			sender := NewSender(200*time.Millisecond, slog.Default())
			payload := []byte(`{"payment_key":"pk_1","status":"success"}`)

			err := sender.Send(context.Background(), "http://example.com/callback", payload)
			if tt.expectedError {
				assert.Error(t, err)
				if tt.expectedErrMsg != "" {
					assert.Contains(t, err.Error(), tt.expectedErrMsg)
				}
				if tt.expectTimeout {
					var netErr net.Error
					if assert.True(t, errors.As(err, &netErr)) {
						assert.True(t, netErr.Timeout())
					}
				}
				if tt.expectedStatus != 0 {
					var deliveryErr *DeliveryError
					if assert.True(t, errors.As(err, &deliveryErr)) {
						assert.Equal(t, tt.expectedStatus, deliveryErr.StatusCode)
					}
				}
			} else {
				assert.NoError(t, err)
			}
			assert.True(t, gock.IsDone())
		})
	}
}
