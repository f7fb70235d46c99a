package services

import (
	"fmt"
	"log"
	"net/smtp"
	"os"
)

type smtpSettings struct {
	Host string
	Port string
	User string
	Pass string
	From string
}

func loadSMTPSettings() (smtpSettings, bool) {
	s := smtpSettings{
		Host: os.Getenv("SMTP_HOST"),
		Port: os.Getenv("SMTP_PORT"),
		User: os.Getenv("SMTP_USER"),
		Pass: os.Getenv("SMTP_PASS"),
		From: os.Getenv("FROM_EMAIL"),
	}
	if s.Host == "" || s.Port == "" || s.User == "" || s.Pass == "" {
		return s, false
	}
	return s, true
}

// sendMail envía un correo HTML con la configuración SMTP del entorno
func sendMail(settings smtpSettings, to, subject, body string) error {
	auth := smtp.PlainAuth("", settings.User, settings.Pass, settings.Host)

	message := fmt.Sprintf("To: %s\r\n"+
		"Subject: %s\r\n"+
		"MIME-Version: 1.0\r\n"+
		"Content-Type: text/html; charset=UTF-8\r\n"+
		"\r\n"+
		"%s\r\n", to, subject, body)

	return smtp.SendMail(settings.Host+":"+settings.Port, auth, settings.From, []string{to}, []byte(message))
}

// SendPasswordResetEmail envía el token de restablecimiento de contraseña.
// Sin configuración SMTP solo registra el token y simula el envío.
func SendPasswordResetEmail(email, token string) error {
	settings, ok := loadSMTPSettings()
	if !ok {
		log.Printf("Configuración de email no encontrada. Token para %s: %s", email, token)
		return nil
	}

	body := fmt.Sprintf(`
	<html>
	<body>
		<h2>Restablecimiento de contraseña</h2>
		<p>Has solicitado restablecer tu contraseña. Utiliza el siguiente token:</p>
		<p><strong>%s</strong></p>
		<p>Si no has solicitado este cambio, puedes ignorar este correo.</p>
	</body>
	</html>
	`, token)

	if err := sendMail(settings, email, "Restablecimiento de contraseña", body); err != nil {
		log.Printf("Error al enviar email: %v", err)
		return err
	}

	return nil
}
