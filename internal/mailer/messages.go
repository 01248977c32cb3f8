package mailer

import "fmt"

func ActivationMessage(name, link string) (subject, body string) {
	subject = "Activate your Smart Shop account"
	body = fmt.Sprintf("Hi %s,\n\nPlease click the link below to activate your account:\n%s\n\nIf you did not sign up, you can ignore this email.\n", name, link)
	return subject, body
}

func PasswordResetMessage(link string) (subject, body string) {
	subject = "Reset your Smart Shop password"
	body = fmt.Sprintf("Click the link below to reset your password:\n%s\n\nIf you did not ask for a reset, you can ignore this email.\n", link)
	return subject, body
}
