package service

import "fmt"

func verificationEmailTemplate(code, appName string) (string, string) {
	subject := fmt.Sprintf("Verify your email for %s", appName)
	body := fmt.Sprintf(`Welcome to %s!

Enter this code in the app to verify your email address:

    %s

If you didn't create an account, you can safely ignore this email.

Best,
The %s Team`, appName, code, appName)

	return subject, body
}
