package utils

import (
	"fmt"
	"html"
	"time"
)

type InvitationEmail struct {
	FirstName    string
	ProcessTitle string
	Description  string
	AcceptURL    string
	ExpiresAt    time.Time
}

// RenderInvitationEmail returns subject, plain text and HTML bodies.
func RenderInvitationEmail(e InvitationEmail) (string, string, string) {
	subject := fmt.Sprintf("You're invited to apply for '%s'", e.ProcessTitle)
	expires := e.ExpiresAt.UTC().Format("3:04 PM, Jan 2 2006 (UTC)")

	name := e.FirstName
	if name == "" {
		name = "there"
	}

	text := fmt.Sprintf(`Hello %s,

You have been invited to take part in the selection process "%s".

%s

Open the link below to accept the invitation:
%s

This invitation expires on %s.
`, name, e.ProcessTitle, e.Description, e.AcceptURL, expires)

	body := fmt.Sprintf(`
	<!DOCTYPE html>
	<html lang="en">
	<head>
	<meta charset="UTF-8" />
	<meta name="viewport" content="width=device-width, initial-scale=1.0" />
	<title>Selection Process Invitation</title>
	<style>
		body {
			font-family: 'Segoe UI', Roboto, Arial, sans-serif;
			background-color: #f5f7f6;
			margin: 0;
			padding: 0;
			color: #333333;
		}
		.container {
			max-width: 480px;
			margin: 25px auto;
			background: #ffffff;
			border-radius: 12px;
			overflow: hidden;
			border-top: 5px solid #1d3f72;
		}
		.header {
			background-color: #1d3f72;
			color: #ffffff;
			text-align: center;
			padding: 18px 12px;
		}
		.content {
			padding: 20px 18px;
			font-size: 13px;
			line-height: 1.5;
		}
		.process-box {
			background: #f6f9fd;
			border: 1px solid #d7e2f0;
			border-radius: 8px;
			padding: 12px 14px;
			margin: 16px 0;
		}
		.btn {
			display: inline-block;
			background-color: #1d3f72;
			color: #ffffff !important;
			text-decoration: none;
			font-weight: 600;
			padding: 10px 22px;
			border-radius: 6px;
			margin: 18px 0;
		}
		.expiry {
			font-size: 12px;
			color: #888888;
		}
		@media (max-width: 480px) {
			.container {
				width: 92%%;
			}
			.btn {
				display: block;
				width: 100%%;
				text-align: center;
			}
		}
	</style>
	</head>
	<body>
		<div class="container">
			<div class="header"><h1>You're Invited!</h1></div>
			<div class="content">
				<p>Hello %s,</p>
				<p>You have been invited to take part in a selection process.</p>
				<div class="process-box">
					<h3>%s</h3>
					<p>%s</p>
				</div>
				<div style="text-align: center;">
					<a href="%s" class="btn">Accept Invitation</a>
				</div>
				<p class="expiry">This invitation expires on <b>%s</b>.</p>
			</div>
		</div>
	</body>
	</html>
	`, html.EscapeString(name), html.EscapeString(e.ProcessTitle), html.EscapeString(e.Description),
		html.EscapeString(e.AcceptURL), expires)

	return subject, text, body
}
