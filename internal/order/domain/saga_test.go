package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition_ForwardPath(t *testing.T) {
	path := []SagaState{
		SagaStarted,
		SagaCustomerVerified,
		SagaInventoryReserved,
		SagaOrderPersisted,
		SagaPaymentInitiated,
		SagaConfirmed,
	}
	for i := 0; i < len(path)-1; i++ {
		assert.True(t, CanTransition(path[i], path[i+1]), "%s -> %s", path[i], path[i+1])
	}
}

func TestCanTransition_CompensationOnlyBeforeConfirmation(t *testing.T) {
	for _, from := range []SagaState{SagaStarted, SagaCustomerVerified, SagaInventoryReserved, SagaOrderPersisted, SagaPaymentInitiated} {
		assert.True(t, CanTransition(from, SagaCompensating), "compensation must be reachable from %s", from)
	}
	assert.False(t, CanTransition(SagaConfirmed, SagaCompensating))
	assert.False(t, CanTransition(SagaFailed, SagaCompensating))
}

func TestCanTransition_CompensatingOnlyFails(t *testing.T) {
	assert.True(t, CanTransition(SagaCompensating, SagaFailed))
	assert.False(t, CanTransition(SagaCompensating, SagaConfirmed))
	assert.False(t, CanTransition(SagaCompensating, SagaOrderPersisted))
}

func TestCanTransition_NoSkippingSteps(t *testing.T) {
	assert.False(t, CanTransition(SagaStarted, SagaInventoryReserved))
	assert.False(t, CanTransition(SagaCustomerVerified, SagaOrderPersisted))
	assert.False(t, CanTransition(SagaInventoryReserved, SagaConfirmed))
}

func TestCanTransition_TerminalStatesAreFinal(t *testing.T) {
	for _, terminal := range []SagaState{SagaConfirmed, SagaFailed} {
		assert.True(t, terminal.Terminal())
		for _, to := range []SagaState{SagaStarted, SagaCustomerVerified, SagaInventoryReserved, SagaOrderPersisted, SagaPaymentInitiated, SagaConfirmed, SagaCompensating, SagaFailed} {
			assert.False(t, CanTransition(terminal, to), "%s must not leave via %s", terminal, to)
		}
	}
	assert.False(t, SagaCompensating.Terminal())
	assert.False(t, SagaStarted.Terminal())
}
