package inventory

// Query templates for the Inventory Service. Date placeholders take
// values produced by remoteDate; names are quoted with graphQLString.
const (
	queryFreeRoomIDs = `{ listRoomAvailabilities(where: {date: {gte: "%s", lt: "%s"}, room: {room_type_id: {equals: %d}}, ` +
		`booking_id: {equals: 0}, property_id: {equals: %d}} take: %d) { room_id } }`

	queryFreeAvailabilityIDs = `{ listRoomAvailabilities(where: {date: {gte: "%s", lt: "%s"}, property_id: {equals: %d}, ` +
		`room_id: {equals: %d}, booking_id: {equals: 0}}) { availability_id } }`

	queryBookedAvailabilityIDs = `query { listRoomAvailabilities(where: {booking_id: {equals: %d}}) { availability_id } }`

	queryRoomAvailabilities = `{ listRoomAvailabilities(orderBy: {date: ASC} where: {property_id: {equals: %d}, ` +
		`date: {gte: "%s", lt: "%s"}, booking_id: {equals: 0}} take: %d) { date room { room_id room_type { room_type_name } } } }`

	queryRoomRates = `{ listRoomRateRoomTypeMappings(where: {room_type: {property_id: {equals: %d}}, ` +
		`room_rate: {date: {gte: "%s", lt: "%s"}}} take: %d) { room_rate { basic_nightly_rate date } room_type { room_type_name } } }`

	queryRoomTypeRates = `{ listRoomRateRoomTypeMappings(where: {room_rate: {date: {gte: "%s", lt: "%s"}}, ` +
		`room_type_id: {equals: %d}, room_type: {property_id: {equals: %d}}} orderBy: {room_rate: {date: ASC}}) ` +
		`{ room_rate { basic_nightly_rate date } } }`

	mutationCreateGuest = `mutation { createGuest(data: {guest_name: %s}) { guest_id } }`

	mutationCreateBooking = `mutation { createBooking(data: {check_in_date: "%s", check_out_date: "%s", ` +
		`adult_count: %d, child_count: %d, total_cost: %d, amount_due_at_resort: %d, ` +
		`booking_status: {connect: {status_id: %d}}, guest: {connect: {guest_id: %d}}, ` +
		`promotion_applied: {connect: {promotion_id: %d}}, property_booked: {connect: {property_id: %d}}, ` +
		`room_booked: {connect: {availability_id: %d}}}) { booking_id } }`

	mutationCreateBookingNoPromotion = `mutation { createBooking(data: {check_in_date: "%s", check_out_date: "%s", ` +
		`adult_count: %d, child_count: %d, total_cost: %d, amount_due_at_resort: %d, ` +
		`booking_status: {connect: {status_id: %d}}, guest: {connect: {guest_id: %d}}, ` +
		`property_booked: {connect: {property_id: %d}}, room_booked: {connect: {availability_id: %d}}}) { booking_id } }`

	mutationLinkAvailability = `mutation { updateRoomAvailability(where: {availability_id: %d} ` +
		`data: {booking: {connect: {booking_id: %d}, update: {booking_id: %d}}}) { booking_id } }`

	mutationUpdateBookingStatus = `mutation { updateBooking(where: {booking_id: %d} ` +
		`data: {booking_status: {connect: {status_id: %d}, update: {status_id: %d}}}) { booking_id } }`
)

const (
	opListRoomAvailabilities = "listRoomAvailabilities"
	opListRoomRates          = "listRoomRateRoomTypeMappings"
	opCreateGuest            = "createGuest"
	opCreateBooking          = "createBooking"
	opUpdateRoomAvailability = "updateRoomAvailability"
	opUpdateBooking          = "updateBooking"
)
