package utils

import (
	"fmt"
	"html"
)

// RenderWelcomeEmail is sent once an invitation has been turned into an
// application.
func RenderWelcomeEmail(firstName, processTitle string) (string, string, string) {
	subject := fmt.Sprintf("Your application to '%s' is in", processTitle)

	name := firstName
	if name == "" {
		name = "there"
	}

	text := fmt.Sprintf(`Hello %s,

Your application to "%s" has been registered.
The next step is recording your presentation video; assessments unlock as soon as it is uploaded.
`, name, processTitle)

	body := fmt.Sprintf(`
	<!DOCTYPE html>
	<html lang="en">
	<head>
		<meta charset="UTF-8" />
		<title>Application received</title>
		<style>
			body {
				font-family: 'Segoe UI', Roboto, Arial, sans-serif;
				background-color: #f9fbfa;
				margin: 0;
				padding: 0;
			}
			.container {
				max-width: 560px;
				margin: 40px auto;
				background: #ffffff;
				border-radius: 18px;
				border-top: 6px solid #1d3f72;
				padding: 30px 36px;
				color: #333333;
			}
		</style>
	</head>
	<body>
		<div class="container">
			<h2>Welcome, %s!</h2>
			<p>Your application to <b>%s</b> has been registered.</p>
			<p>The next step is recording your presentation video. Assessments unlock as soon as it is uploaded.</p>
		</div>
	</body>
	</html>
	`, html.EscapeString(name), html.EscapeString(processTitle))

	return subject, text, body
}
