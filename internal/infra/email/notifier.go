package email

import (
	"context"
	"fmt"
	"net/smtp"

	"go.uber.org/zap"
)

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type SMTPNotifier struct {
	host   string
	port   int
	from   string
	send   sendFunc
	logger *zap.Logger
}

func NewSMTPNotifier(host string, port int, from string, logger *zap.Logger) *SMTPNotifier {
	return &SMTPNotifier{host: host, port: port, from: from, send: smtp.SendMail, logger: logger}
}

// NotifyFailure tells the requester that no recognition results could be
// produced for their media.
func (n *SMTPNotifier) NotifyFailure(_ context.Context, userEmail, jobID, source, errorMsg string) error {
	addr := fmt.Sprintf("%s:%d", n.host, n.port)
	msg := FailureMessage(n.from, userEmail, jobID, source, errorMsg)

	err := n.send(addr, nil, n.from, []string{userEmail}, msg)
	if err != nil {
		n.logger.Error("failed to send failure notification email",
			zap.String("to", userEmail),
			zap.String("job_id", jobID),
			zap.Error(err),
		)
		return fmt.Errorf("send email: %w", err)
	}

	n.logger.Info("failure notification email sent",
		zap.String("to", userEmail),
		zap.String("job_id", jobID),
	)
	return nil
}

func FailureMessage(from, to, jobID, source, errorMsg string) []byte {
	subject := fmt.Sprintf("FrameVR - Recognition Failed [Job %s]", jobID)
	body := fmt.Sprintf(
		"Hello,\r\n\r\n"+
			"Visual recognition could not produce any results for your video.\r\n\r\n"+
			"Job ID: %s\r\n"+
			"Media: %s\r\n"+
			"Error: %s\r\n\r\n"+
			"Check that the media is reachable and the timestamps lie within it, then submit the request again.\r\n\r\n"+
			"-- FrameVR Recognition Service",
		jobID, source, errorMsg,
	)
	return []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s", from, to, subject, body))
}
