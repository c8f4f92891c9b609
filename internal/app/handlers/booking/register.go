package booking

import (
	"staybook/internal/app/commands"
	"staybook/internal/app/dto"
)

// RegisterCommands attaches the booking write handlers to bus.
func RegisterCommands(bus *commands.InMemoryBus, create *CreateBookingHandler, transition *TransitionBookingHandler, completeDue *CompleteDueHandler) {
	commands.RegisterHandler[CreateBookingCommand, *dto.Booking](bus, createBookingKey, create)
	commands.RegisterHandler[TransitionBookingCommand, *dto.Booking](bus, transitionBookingKey, transition)
	commands.RegisterHandler[CompleteDueBookingsCommand, *CompleteDueResult](bus, completeDueKey, completeDue)
}
