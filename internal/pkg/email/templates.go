package email

// BaseTemplate is the base layout for all emails
const BaseTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <style>
        body { margin: 0; padding: 0; font-family: -apple-system, 'Segoe UI', Roboto, Arial, sans-serif; background: #f4f4f7; color: #1f2937; }
        .container { max-width: 600px; margin: 0 auto; padding: 40px 20px; }
        .card { background: #ffffff; border-radius: 12px; padding: 32px; border: 1px solid #e5e7eb; }
        .logo { text-align: center; margin-bottom: 24px; font-size: 24px; font-weight: 700; color: #4f46e5; }
        .button { display: inline-block; padding: 12px 24px; background: #4f46e5; color: #ffffff; text-decoration: none; border-radius: 8px; }
        .muted { color: #6b7280; font-size: 13px; }
        table.summary td { padding: 4px 12px 4px 0; }
    </style>
</head>
<body>
    <div class="container">
        <div class="card">
            <div class="logo">EventHub</div>
            {{.Content}}
        </div>
        <p class="muted" style="text-align:center">You received this email because you have an EventHub account.</p>
    </div>
</body>
</html>`

const TransactionAcceptedTemplate = `
<h2>Hi {{.Name}}, your tickets are confirmed!</h2>
<p>The organizer has verified your payment for <strong>{{.EventName}}</strong>.</p>
<table class="summary">
    <tr><td>Tickets</td><td>{{.TicketQuantity}}</td></tr>
    <tr><td>Total</td><td>{{.TotalPrice}}</td></tr>
</table>
<p>See you at the event.</p>`

const TransactionRejectedTemplate = `
<h2>Hi {{.Name}}, your transaction was rejected</h2>
<p>The organizer could not verify your payment for <strong>{{.EventName}}</strong>.</p>
<table class="summary">
    <tr><td>Tickets</td><td>{{.TicketQuantity}}</td></tr>
    <tr><td>Total</td><td>{{.TotalPrice}}</td></tr>
</table>
<p>Any points, vouchers or coupons you used have been returned to your account.</p>`

const PasswordResetTemplate = `
<h2>Hi {{.Name}},</h2>
<p>We received a request to reset your password. The link below is valid for one hour and can be used once.</p>
<p><a class="button" href="{{.ResetURL}}">Reset password</a></p>
<p class="muted">If you did not request this, you can ignore this email.</p>`

const WelcomeTemplate = `
<h2>Welcome, {{.Name}}!</h2>
<p>Your account is ready. Share your referral code <strong>{{.ReferralCode}}</strong> with friends: you get points every time someone signs up with it.</p>`
