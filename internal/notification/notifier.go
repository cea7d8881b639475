// Package notification delivers student-facing notices about certificate
// lifecycle events. The console notifier logs the rendered message instead
// of sending mail; a real mail provider slots in behind the same interface.
package notification

import (
	"context"
	"fmt"
	"log/slog"

	"certverify/internal/certificate/models"
)

type ConsoleNotifier struct {
	logger *slog.Logger
}

func NewConsoleNotifier(logger *slog.Logger) *ConsoleNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConsoleNotifier{logger: logger}
}

func (n *ConsoleNotifier) CertificateIssued(ctx context.Context, cert *models.Certificate) error {
	if cert.StudentEmail == "" {
		return nil
	}
	n.logger.InfoContext(ctx, "notification",
		"to", cert.StudentEmail,
		"subject", issuedSubject(cert),
		"body", issuedBody(cert),
	)
	return nil
}

func (n *ConsoleNotifier) CertificateRevoked(ctx context.Context, cert *models.Certificate, reason string) error {
	if cert.StudentEmail == "" {
		return nil
	}
	n.logger.InfoContext(ctx, "notification",
		"to", cert.StudentEmail,
		"subject", revokedSubject(cert),
		"body", revokedBody(cert, reason),
	)
	return nil
}

func issuedSubject(cert *models.Certificate) string {
	return fmt.Sprintf("Your certificate %s has been issued", cert.CertificateNumber)
}

func issuedBody(cert *models.Certificate) string {
	return fmt.Sprintf(
		"Dear %s,\n\nYour certificate for %s has been issued.\n\nCertificate number: %s\nVerification code: %s\n\nAnyone can verify this certificate using the verification code.",
		cert.StudentName, cert.CourseName, cert.CertificateNumber, cert.VerificationCode,
	)
}

func revokedSubject(cert *models.Certificate) string {
	return fmt.Sprintf("Your certificate %s has been revoked", cert.CertificateNumber)
}

func revokedBody(cert *models.Certificate, reason string) string {
	return fmt.Sprintf(
		"Dear %s,\n\nYour certificate for %s (%s) has been revoked.\n\nReason: %s\n\nContact your university for details.",
		cert.StudentName, cert.CourseName, cert.CertificateNumber, reason,
	)
}
