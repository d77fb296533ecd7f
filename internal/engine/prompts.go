package engine

import (
	"fmt"

	"github.com/example/tablecall/internal/booking"
)

// Prompt generation for the two outbound call legs. The scripts are plain
// text handed to the call provider as the assistant's system prompt and
// opening line.

func restaurantCallScript(b booking.Booking) (systemPrompt, firstMessage string) {
	systemPrompt = fmt.Sprintf(`You are an AI assistant calling %s to make a table reservation.

Reservation details:
- Name: %s
- Date: %s
- Time: %s
- Party size: %d people

Be polite and concise. Confirm the booking and repeat back the confirmed date, time, and name.
When the booking is confirmed, say exactly: "Booking confirmed for %s, %d people on %s at %s. Thank you!"
Then end the call politely.`,
		b.RestaurantName,
		b.CustomerName, b.Date, b.Time, b.PartySize,
		b.CustomerName, b.PartySize, b.Date, b.Time,
	)

	firstMessage = fmt.Sprintf(
		"Hello! I'm calling to make a reservation for %d people on %s at %s under the name %s. Is that available?",
		b.PartySize, b.Date, b.Time, b.CustomerName,
	)
	return systemPrompt, firstMessage
}

func customerCallScript(b booking.Booking) (systemPrompt, firstMessage string) {
	systemPrompt = fmt.Sprintf(`You are an AI assistant calling %s to confirm their restaurant reservation.

Booking details:
- Restaurant: %s
- Address: %s
- Date: %s
- Time: %s
- Party size: %d people
- Reservation name: %s

Tell them the booking is confirmed, give them all the details, and let them know
it has been added to their calendar. Be warm and brief. Then say goodbye.`,
		b.CustomerName,
		b.RestaurantName, b.Location, b.Date, b.Time, b.PartySize, b.CustomerName,
	)

	firstMessage = fmt.Sprintf(
		"Hi %s! I'm calling to confirm your table reservation at %s for %d people on %s at %s. It's all set and I've added it to your calendar!",
		b.CustomerName, b.RestaurantName, b.PartySize, b.Date, b.Time,
	)
	return systemPrompt, firstMessage
}
