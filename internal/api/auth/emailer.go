package auth

import (
	"fmt"
	"net/smtp"
	"os"
)

func SendVerificationEmail(to string, token string) error {
	link := fmt.Sprintf("http://localhost:8080/verify?token=%s", token)
	subject := "Verify Your Gym Account"
	body := fmt.Sprintf("Click the following link to verify your account:\n\n%s", link)
	return sendMail(to, subject, body)
}

func SendPasswordResetEmail(to string, resetLink string) error {
	subject := "Reset Your Password"
	body := fmt.Sprintf("Click the following link to reset your password (valid for 1 hour):\n\n%s", resetLink)
	return sendMail(to, subject, body)
}

func sendMail(to string, subject string, body string) error {
	from := os.Getenv("SMTP_FROM")
	password := os.Getenv("SMTP_PASSWORD")
	host := os.Getenv("SMTP_HOST")
	port := os.Getenv("SMTP_PORT")

	auth := smtp.PlainAuth("", from, password, host)

	message := []byte("Subject: " + subject + "\r\n" +
		"From: " + from + "\r\n" +
		"To: " + to + "\r\n" +
		"Content-Type: text/plain; charset=UTF-8\r\n" +
		"\r\n" +
		body + "\r\n")

	err := smtp.SendMail(host+":"+port, auth, from, []string{to}, message)
	if err != nil {
		fmt.Println("❌ SMTP error:", err)
	}
	return err
}
