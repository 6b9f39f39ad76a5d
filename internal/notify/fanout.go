package notify

import (
	"errors"

	"github.com/vladislavdragonenkov/resto/internal/domain"
)

// fanout публикует событие в несколько приёмников сразу: внутренний хаб
// комнат и, при наличии, внешний брокер.
type fanout struct {
	publishers []domain.OutboxPublisher
}

// NewFanout объединяет несколько публикаторов в один. Ошибки приёмников
// собираются вместе: событие считается доставленным, только если его
// приняли все.
func NewFanout(publishers ...domain.OutboxPublisher) domain.OutboxPublisher {
	return &fanout{publishers: publishers}
}

func (f *fanout) Publish(event domain.OutboxMessage) error {
	var errs []error
	for _, pub := range f.publishers {
		if err := pub.Publish(event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ domain.OutboxPublisher = (*fanout)(nil)
