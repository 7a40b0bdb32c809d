package port

import "context"

// PaymentGateway is the outbound payment channel used for excess refunds and
// operator withdrawals. Its only contract is "attempt transfer of amount to
// identity; report success or failure" — the service treats any error as a
// failed transfer and aborts the operation.
type PaymentGateway interface {
	Transfer(ctx context.Context, to string, amount int64) error
}
