package usecase

const verificationCodeSubject = "Your VeriMail verification code"

const verificationCodeTemplate = `<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #1f2933;">
	<h2>Hello {{.first_name}},</h2>
	<p>Use this code to verify your email address:</p>
	<p style="font-size: 28px; font-weight: bold; letter-spacing: 6px;">{{.code}}</p>
	<p>The code expires in {{.expires_minutes}} minutes. If you did not request it, you can ignore this email.</p>
	<p>Questions? Contact us at {{.support_email}}.</p>
	<p>&copy; {{.year}} {{.company_name}}</p>
</body>
</html>`

const welcomeSubject = "Welcome to VeriMail"

const welcomeTemplate = `<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #1f2933;">
	<h2>Welcome {{.first_name}},</h2>
	<p>Your email address is verified and your account is ready to use.</p>
	<p>Questions? Contact us at {{.support_email}}.</p>
	<p>&copy; {{.year}} {{.company_name}}</p>
</body>
</html>`
