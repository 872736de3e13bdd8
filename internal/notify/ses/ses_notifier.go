// Package ses sends batch completion notices through Amazon SES.
package ses

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"addrparser/internal/config"
	"addrparser/internal/domain"
	"addrparser/internal/port"
)

// emailClient is the subset of the SES API the notifier uses.
type emailClient interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

type sesNotifier struct {
	client      emailClient
	fromAddress string
	fromName    string
	recipients  []string
}

// NewSESNotifier creates a new SES-backed BatchNotifier.
func NewSESNotifier(ctx context.Context, cfg *config.NotifyConfig) (port.BatchNotifier, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config for SES: %w", err)
	}
	return newSESNotifier(sesv2.NewFromConfig(awsCfg), cfg), nil
}

func newSESNotifier(client emailClient, cfg *config.NotifyConfig) *sesNotifier {
	return &sesNotifier{
		client:      client,
		fromAddress: cfg.FromAddress,
		fromName:    cfg.FromName,
		recipients:  cfg.Recipients,
	}
}

func (n *sesNotifier) NotifyBatchCompleted(ctx context.Context, s domain.RunSummary) error {
	if len(n.recipients) == 0 {
		return nil
	}

	subject := buildSubject(s)
	textBody := buildText(s)
	htmlBody := buildHTML(s)
	from := fmt.Sprintf("%s <%s>", n.fromName, n.fromAddress)

	_, err := n.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: &from,
		Destination: &types.Destination{
			ToAddresses: n.recipients,
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: &subject},
				Body: &types.Body{
					Html: &types.Content{Data: &htmlBody},
					Text: &types.Content{Data: &textBody},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("SES SendEmail: %w", err)
	}
	return nil
}

func kindLabel(k domain.SessionKind) string {
	if k == domain.SessionKindEmployee {
		return "nhân viên"
	}
	return "địa chỉ"
}

func buildSubject(s domain.RunSummary) string {
	if s.Canceled {
		return fmt.Sprintf("Chuẩn hóa %s bị dừng: %d/%d thành công", kindLabel(s.Kind), s.Done, s.Attempted)
	}
	return fmt.Sprintf("Chuẩn hóa %s hoàn tất: %d/%d thành công", kindLabel(s.Kind), s.Done, s.Attempted)
}

func buildText(s domain.RunSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Phiên: %s\n", s.SessionID)
	fmt.Fprintf(&b, "Đã xử lý: %d\n", s.Attempted)
	fmt.Fprintf(&b, "Thành công: %d\n", s.Done)
	fmt.Fprintf(&b, "Thất bại: %d\n", s.Failed)
	fmt.Fprintf(&b, "Thời gian: %s\n", s.FinishedAt.Sub(s.StartedAt).Round(time.Second))
	if s.Canceled {
		b.WriteString("Lượt chạy đã bị dừng trước khi xử lý hết danh sách.\n")
	}
	return b.String()
}

func buildHTML(s domain.RunSummary) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="color: #333;">%s</h2>
  <pre style="font-size: 14px; color: #333;">%s</pre>
</body>
</html>`, html.EscapeString(buildSubject(s)), html.EscapeString(buildText(s)))
}
