package pushsvc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/students-gateway/gateway/core"
)

var sendFunc = sendWithContext // mockable

type expoService struct {
	url         string
	accessToken string
	logger      core.Logger
}

var _ core.PushService = (*expoService)(nil)

// NewExpoService returns a push service posting batches to the Expo push API.
func NewExpoService(conf *core.Config, logger core.Logger) *expoService {
	return &expoService{
		url:         conf.Push.URL,
		accessToken: conf.Push.AccessToken,
		logger:      logger,
	}
}

func (svc expoService) Notify(ctx context.Context, msg core.PushMessage) bool {
	if !msg.HasRecipients() {
		return false
	}
	res, err := svc.send(ctx, msg)
	if err != nil {
		svc.logger.Error("sending push notification", err)
		return false
	}
	if res.StatusCode != http.StatusOK {
		svc.logger.Error(fmt.Sprintf("sending push notification - status: %d - Body: %s", res.StatusCode, res.Body))
		return false
	}
	return true
}

func (svc expoService) send(ctx context.Context, msg core.PushMessage) (*rest.Response, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return nil, errors.Wrap(err, "encoding push message")
	}
	headers := map[string]string{
		"Accept":       "application/json",
		"Content-Type": "application/json",
	}
	if svc.accessToken != "" {
		headers["Authorization"] = "Bearer " + svc.accessToken
	}
	req := rest.Request{
		Method:  rest.Post,
		BaseURL: svc.url,
		Headers: headers,
		Body:    body,
	}
	res, err := sendFunc(ctx, req)
	if err != nil {
		return nil, errors.Wrap(err, "posting push message")
	}
	return res, nil
}

// sendWithContext is rest.Send bound to ctx.
func sendWithContext(ctx context.Context, request rest.Request) (*rest.Response, error) {
	req, err := rest.BuildRequestObject(request)
	if err != nil {
		return nil, err
	}
	res, err := rest.MakeRequest(req.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	return rest.BuildResponse(res)
}
