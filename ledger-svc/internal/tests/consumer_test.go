package tests

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"lunchbox/ledger-svc/internal/domain"
	"lunchbox/ledger-svc/internal/mocks"
	"lunchbox/ledger-svc/internal/service"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func paymentMessage(eventType string) domain.PaymentMessage {
	return domain.PaymentMessage{
		Type:      eventType,
		OrderCode: "CODE1",
		UserID:    "u1",
		Date:      "2025-03-10",
		Amount:    82000,
		OrderIDs:  []string{"L1", "L2"},
		Breakdown: map[string]int64{"r1": 82000},
	}
}

func TestConsumer_Process(t *testing.T) {
	tests := []struct {
		name           string
		inputMessage   domain.PaymentMessage
		setupMockStore func(*mocks.StoreInterface)
		expectedError  error
	}{
		{
			name:         "payment_completed",
			inputMessage: paymentMessage(domain.EventPaymentCompleted),
			setupMockStore: func(mockStore *mocks.StoreInterface) {
				mockStore.On("RecordPayment", mock.Anything, paymentMessage(domain.EventPaymentCompleted)).Return(true, nil).Once()
			},
		},
		{
			name:         "duplicate_payment",
			inputMessage: paymentMessage(domain.EventPaymentCompleted),
			setupMockStore: func(mockStore *mocks.StoreInterface) {
				mockStore.On("RecordPayment", mock.Anything, mock.Anything).Return(false, nil).Once()
			},
		},
		{
			name:         "orders_settled",
			inputMessage: paymentMessage(domain.EventOrdersSettled),
			setupMockStore: func(mockStore *mocks.StoreInterface) {
				mockStore.On("RecordSettlement", mock.Anything, mock.Anything).Return(true, nil).Once()
			},
		},
		{
			name:         "redis_error",
			inputMessage: paymentMessage(domain.EventPaymentCompleted),
			setupMockStore: func(mockStore *mocks.StoreInterface) {
				mockStore.On("RecordPayment", mock.Anything, mock.Anything).Return(false, errors.New("redis error")).Once()
			},
			expectedError: errors.New("redis error"),
		},
		{
			name:           "unknown_type",
			inputMessage:   paymentMessage("payment_refunded"),
			setupMockStore: func(mockStore *mocks.StoreInterface) {},
		},
		{
			name:           "missing_order_code",
			inputMessage:   domain.PaymentMessage{Type: domain.EventPaymentCompleted, Date: "2025-03-10"},
			setupMockStore: func(mockStore *mocks.StoreInterface) {},
			expectedError:  domain.ErrInvalidMessage,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			mockStore := mocks.NewStoreInterface(t)
			testCase.setupMockStore(mockStore)

			consumer := &service.Consumer{
				Store: mockStore,
			}

			err := consumer.Process(context.Background(), testCase.inputMessage)
			if testCase.expectedError != nil {
				assert.EqualError(t, err, testCase.expectedError.Error())
				return
			}
			assert.NoError(t, err)
		})
	}
}

func committed(offset int64) interface{} {
	return mock.MatchedBy(func(msg kafka.Message) bool { return msg.Offset == offset })
}

func TestConsumer_Start(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	payload, err := json.Marshal(paymentMessage(domain.EventPaymentCompleted))
	assert.NoError(t, err)

	mockReader := mocks.NewMessageReader(t)
	mockStore := mocks.NewStoreInterface(t)
	mockReader.On("FetchMessage", mock.Anything).Return(kafka.Message{Offset: 1, Value: payload}, nil).Once()
	mockReader.On("FetchMessage", mock.Anything).Return(kafka.Message{Offset: 2, Value: []byte("{not json")}, nil).Once()
	mockReader.On("FetchMessage", mock.Anything).Return(func(context.Context) (kafka.Message, error) {
		cancel()
		return kafka.Message{}, context.Canceled
	}).Once()
	mockReader.On("CommitMessages", mock.Anything, committed(1)).Return(nil).Once()
	mockReader.On("CommitMessages", mock.Anything, committed(2)).Return(nil).Once()

	// the first write fails; the offset is committed only after the retry lands
	mockStore.On("RecordPayment", mock.Anything, mock.Anything).Return(false, errors.New("redis error")).Once()
	mockStore.On("RecordPayment", mock.Anything, mock.MatchedBy(func(msg domain.PaymentMessage) bool {
		return msg.OrderCode == "CODE1" && msg.Amount == 82000
	})).Return(true, nil).Once()

	consumer := service.NewConsumer(mockReader, mockStore)
	consumer.RetryDelay = time.Millisecond
	consumer.Start(ctx)
}

func TestConsumer_Start_keepsOffsetWhenStoppedMidRetry(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	payload, err := json.Marshal(paymentMessage(domain.EventOrdersSettled))
	assert.NoError(t, err)

	mockReader := mocks.NewMessageReader(t)
	mockStore := mocks.NewStoreInterface(t)
	mockReader.On("FetchMessage", mock.Anything).Return(kafka.Message{Offset: 7, Value: payload}, nil).Once()
	mockStore.On("RecordSettlement", mock.Anything, mock.Anything).Return(false, errors.New("redis error")).Once()
	mockStore.On("RecordSettlement", mock.Anything, mock.Anything).Return(false, errors.New("redis error")).
		Run(func(mock.Arguments) { cancel() }).Once()

	consumer := service.NewConsumer(mockReader, mockStore)
	consumer.RetryDelay = time.Millisecond
	consumer.Start(ctx)

	mockReader.AssertNotCalled(t, "CommitMessages", mock.Anything, mock.Anything)
}
