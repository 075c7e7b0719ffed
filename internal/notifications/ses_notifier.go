package notifications

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/geocoder89/fleetreg/internal/domain/event"
)

type SESAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESNotifier emails the applicant a receipt for the new registration.
type SESNotifier struct {
	client SESAPI
	from   string
}

func NewSESNotifier(client SESAPI, from string) *SESNotifier {
	return &SESNotifier{client: client, from: from}
}

func (n *SESNotifier) NotifyRegistrationCreated(ctx context.Context, evt event.RegistrationCreated) error {
	subject := fmt.Sprintf("Vehicle registration %s received", evt.Plate)
	body := fmt.Sprintf(
		"Hello %s,\n\nWe received the registration request for plate %s.\nReference: %s\nStatus: PENDING\n",
		evt.OwnerName, evt.Plate, evt.RegistrationID,
	)

	_, err := n.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(n.from),
		Destination: &types.Destination{
			ToAddresses: []string{evt.Email},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject)},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(body)},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("ses send %s: %w", evt.RegistrationID, err)
	}
	return nil
}
