package usecase

import "context"

// TxManager выполняет fn в одной транзакции; транзакция передаётся через ctx.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type MessageProducer interface {
	WriteRawMessage(ctx context.Context, req *WriteRawMessageReq) error
}

type EventEncoder interface {
	Encode(event *CategoryEvent) ([]byte, error)
}
