package booking

import "errors"

// Ошибки ядра бронирования.
var (
	// ErrNoAvailableRooms — все физические номера конфликтуют с
	// подтвержденными бронированиями на выбранные даты.
	ErrNoAvailableRooms = errors.New("нет свободных номеров на выбранные даты")

	// ErrInvalidDates — дата выезда не позже даты заезда.
	ErrInvalidDates = errors.New("некорректные даты бронирования")

	// ErrCancellationNotAllowed — отмена после даты заезда запрещена.
	ErrCancellationNotAllowed = errors.New("нельзя отменить бронирование после даты заезда")

	// ErrNotFound — бронирование с таким идентификатором не найдено.
	ErrNotFound = errors.New("бронирование не найдено")

	// ErrUnavailable — ошибка связи с хранилищем, повтор на стороне
	// вызывающего допустим.
	ErrUnavailable = errors.New("хранилище недоступно")
)
