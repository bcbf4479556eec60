package controllers

import (
	"fmt"

	"github.com/san-kum/pidlab/internal/tf"
)

// ComposeClosedLoop cascades controller and plant and closes the loop with
// unity negative feedback, returning C·P / (1 + C·P). A common factor s^k
// (e.g. from a PID without integral action) is cancelled and the
// denominator is made monic. A vanishing characteristic polynomial fails
// with dynamo.ErrDegenerateSystem.
func ComposeClosedLoop(controller, plant tf.TransferFunction) (tf.TransferFunction, error) {
	open := controller.Mul(plant)
	closed, err := open.Feedback()
	if err != nil {
		return tf.TransferFunction{}, fmt.Errorf("compose closed loop: %w", err)
	}
	return closed.CancelOrigin().Normalize(), nil
}

// ClosedLoop is the convenience form of MakePID followed by
// ComposeClosedLoop.
func ClosedLoop(g Gains, plant tf.TransferFunction) (tf.TransferFunction, error) {
	pid, err := g.TransferFunction()
	if err != nil {
		return tf.TransferFunction{}, err
	}
	return ComposeClosedLoop(pid, plant)
}
