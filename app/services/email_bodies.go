package services

import (
	"fmt"
	"html"
	"time"
)

// Email bodies are simple inline-CSS HTML so they render in every client.
// Branding: soft green background, dark green text.

const (
	brandBg      = "#F3F8F5"
	brandText    = "#1A3B2E"
	brandSubtext = "#3C5A47"
	brandAccent  = "#2E7D32"
)

func emailWrapper(title, subtitle, content string) string {
	sub := ""
	if subtitle != "" {
		sub = fmt.Sprintf(`<div style="font-size:13px;color:%s;margin-top:6px;">%s</div>`, brandSubtext, html.EscapeString(subtitle))
	}
	return fmt.Sprintf(`<!doctype html>
<html>
  <body style="margin:0;padding:24px;background:%s;color:%s;font-family:-apple-system,'Segoe UI',Roboto,Helvetica,Arial,sans-serif;">
    <div style="max-width:640px;margin:0 auto;">
      <div style="text-align:center;margin-bottom:16px;">
        <div style="font-size:26px;font-weight:700;">Herb &amp; Veda</div>
        %s
      </div>
      <div style="background:#ffffff;border-radius:14px;padding:24px;">
        <div style="font-size:18px;font-weight:700;margin-bottom:14px;">%s</div>
        %s
      </div>
      <div style="text-align:center;color:%s;font-size:12px;margin-top:18px;">&copy; %d Herb &amp; Veda. All rights reserved.</div>
    </div>
  </body>
</html>`, brandBg, brandText, sub, html.EscapeString(title), content, brandSubtext, time.Now().Year())
}

func buildOtpEmailHTML(code string, ttl time.Duration) string {
	content := fmt.Sprintf(
		`<p>Your verification code is <b style="font-size:18px">%s</b>.</p><p>It will expire in %d minutes. Do not share this code with anyone.</p>`,
		html.EscapeString(code), int(ttl.Minutes()),
	)
	return emailWrapper("Your verification code", "Account security", content)
}

func buildOtpEmailText(code string, ttl time.Duration) string {
	return fmt.Sprintf("Your verification code is %s. It will expire in %d minutes. Do not share this code with anyone.", code, int(ttl.Minutes()))
}

func buildResetEmailHTML(name, url string) string {
	if name == "" {
		name = "there"
	}
	content := fmt.Sprintf(`<p>Hi %s,</p>
<p>We received a request to reset your Herb &amp; Veda account password.</p>
<p>Click the button below to set a new password. This link will expire soon for your security.</p>
<div style="margin:18px 0;"><a href="%s" style="display:inline-block;background:%s;color:#fff;text-decoration:none;padding:12px 18px;border-radius:10px;font-weight:600;">Reset Password</a></div>
<p style="font-size:14px;color:%s;">If the button does not work, copy and paste this link into your browser:</p>
<div style="font-size:12px;color:%s;word-break:break-all;">%s</div>
<p style="font-size:14px;color:%s;">If you did not request this, you can safely ignore this email.</p>`,
		html.EscapeString(name), html.EscapeString(url), brandAccent, brandSubtext, brandSubtext, html.EscapeString(url), brandSubtext)
	return emailWrapper("Reset your password", "Account security", content)
}

func buildResetEmailText(name, url string) string {
	if name == "" {
		name = "there"
	}
	return fmt.Sprintf("Hi %s,\n\nWe received a request to reset your Herb & Veda account password.\nUse the link below to set a new password (it expires soon):\n%s\n\nIf you did not request this, you can ignore this email.", name, url)
}

// BuildInvoiceEmailHTML is the body that accompanies the PDF invoice
// attachment. Exported for the invoice job.
func BuildInvoiceEmailHTML(customerName, orderNumber string) string {
	content := fmt.Sprintf(`<p>Hi %s,</p>
<p>Thank you for your order <b>%s</b>. Your invoice is attached as a PDF.</p>
<p style="font-size:14px;color:%s;">If you have any questions, just reply to this email and our team will help.</p>`,
		html.EscapeString(customerName), html.EscapeString(orderNumber), brandSubtext)
	return emailWrapper("Your Order Invoice", "Purchase confirmation", content)
}

// BuildInvoiceEmailText is the plain-text fallback for the invoice email.
func BuildInvoiceEmailText(customerName, orderNumber string) string {
	return fmt.Sprintf("Hi %s,\n\nThank you for your order %s. Your invoice is attached as a PDF.\n", customerName, orderNumber)
}

func buildContactEmailHTML(name, email, subject, message string) string {
	content := fmt.Sprintf(`<p style="color:%s;font-size:14px;">You received a new message from your website contact form.</p>
<div style="margin:14px 0;"><div style="font-size:14px;color:%s;">From</div><div style="font-weight:600;">%s &lt;%s&gt;</div></div>
<div style="margin:14px 0;"><div style="font-size:14px;color:%s;">Subject</div><div>%s</div></div>
<div style="margin:14px 0;"><div style="font-size:14px;color:%s;">Message</div><div style="white-space:pre-wrap;">%s</div></div>`,
		brandSubtext, brandSubtext, html.EscapeString(name), html.EscapeString(email),
		brandSubtext, html.EscapeString(subject), brandSubtext, html.EscapeString(message))
	return emailWrapper("New Contact Message", "Customer inquiry", content)
}

func buildContactEmailText(name, email, subject, message string) string {
	return fmt.Sprintf("New Contact Message\nFrom: %s <%s>\nSubject: %s\n\n%s", name, email, subject, message)
}
