package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"

	"hotelapp/internal/booking"
	"hotelapp/internal/catalog"
	"hotelapp/internal/model"
	"hotelapp/internal/store"
)

// TokenVerifier проверяет Firebase ID-токен. Реализуется *auth.Client,
// в тестах подменяется заглушкой.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// Handler связывает HTTP-маршруты с ядром бронирования и каталогом.
type Handler struct {
	rooms    *catalog.Service
	ledger   *booking.Ledger
	verifier TokenVerifier
}

// New создает обработчик.
func New(rooms *catalog.Service, ledger *booking.Ledger, verifier TokenVerifier) *Handler {
	return &Handler{rooms: rooms, ledger: ledger, verifier: verifier}
}

// Register навешивает маршруты на роутер.
func (h *Handler) Register(r *gin.Engine) {
	// Открытые маршруты
	r.GET("/rooms", h.getRooms)
	r.GET("/rooms/:id", h.getRoomByID)
	r.POST("/auth", h.authCheck)

	// Маршруты для бронирований
	authorized := r.Group("/")
	authorized.Use(h.AuthMiddleware())
	{
		authorized.GET("/bookings", h.getUserBookings)
		authorized.POST("/bookings", h.createBooking)
		authorized.GET("/bookings/:id", h.getBookingByID)
		authorized.PUT("/bookings/:id/cancel", h.cancelBooking)
		authorized.POST("/bookings/:id/services", h.requestService)
	}
}

// AuthMiddleware — проверка аутентификации по Firebase ID-токену.
func (h *Handler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "No Authorization header"})
			c.Abort()
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid Authorization header"})
			c.Abort()
			return
		}

		decodedToken, err := h.verifier.VerifyIDToken(c.Request.Context(), token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		// Добавляем UID пользователя в контекст
		c.Set("uid", decodedToken.UID)
		c.Next()
	}
}

// Проверка токена без выдачи данных
func (h *Handler) authCheck(c *gin.Context) {
	authHeader := c.GetHeader("Authorization")
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "No Authorization header"})
		return
	}

	decodedToken, err := h.verifier.VerifyIDToken(c.Request.Context(), token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Успешный вход", "uid": decodedToken.UID})
}

// Получение каталога номеров
func (h *Handler) getRooms(c *gin.Context) {
	rooms, err := h.rooms.FetchRooms(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rooms)
}

func (h *Handler) getRoomByID(c *gin.Context) {
	room, err := h.rooms.GetRoom(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Номер не найден"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, room)
}

func (h *Handler) getUserBookings(c *gin.Context) {
	uid := c.MustGet("uid").(string)

	bookings, err := h.ledger.FetchUserBookings(c.Request.Context(), uid)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, bookings)
}

func (h *Handler) createBooking(c *gin.Context) {
	uid := c.MustGet("uid").(string)

	var req struct {
		RoomID          string    `json:"room_id"`
		StartDate       time.Time `json:"start_date"`
		EndDate         time.Time `json:"end_date"`
		NumberOfGuests  int       `json:"number_of_guests"`
		SpecialRequests string    `json:"special_requests"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	room, err := h.rooms.GetRoom(c.Request.Context(), req.RoomID)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Номер не найден"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if req.NumberOfGuests < 1 || req.NumberOfGuests > room.Capacity {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Недопустимое количество гостей"})
		return
	}

	// Считаем стоимость: цена за ночь на количество ночей. Ночи считаются
	// по календарным дням, а не по разнице моментов.
	startDay := req.StartDate.UTC().Truncate(24 * time.Hour)
	endDay := req.EndDate.UTC().Truncate(24 * time.Hour)
	nights := int(endDay.Sub(startDay).Hours() / 24)
	if nights < 1 {
		nights = 1
	}
	totalPrice := room.Price * float64(nights)

	id, err := h.ledger.CreateBooking(c.Request.Context(), uid, room, req.StartDate, req.EndDate, req.NumberOfGuests, totalPrice, req.SpecialRequests)
	if err != nil {
		h.writeBookingError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id, "total_price": totalPrice})
}

func (h *Handler) getBookingByID(c *gin.Context) {
	uid := c.MustGet("uid").(string)

	b, err := h.ledger.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeBookingError(c, err)
		return
	}
	if b.UserID != uid {
		c.JSON(http.StatusForbidden, gin.H{"error": "Нельзя просматривать чужое бронирование"})
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *Handler) cancelBooking(c *gin.Context) {
	uid := c.MustGet("uid").(string)
	bookingID := c.Param("id")

	b, err := h.ledger.GetBooking(c.Request.Context(), bookingID)
	if err != nil {
		h.writeBookingError(c, err)
		return
	}

	// Проверяем, что бронирование принадлежит пользователю
	if b.UserID != uid {
		c.JSON(http.StatusForbidden, gin.H{"error": "Нельзя отменить чужое бронирование"})
		return
	}

	if err := h.ledger.CancelBooking(c.Request.Context(), bookingID); err != nil {
		h.writeBookingError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Бронирование успешно отменено"})
}

func (h *Handler) requestService(c *gin.Context) {
	uid := c.MustGet("uid").(string)
	bookingID := c.Param("id")

	var req struct {
		Type  string `json:"type"`
		Notes string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Type == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Не указан тип услуги"})
		return
	}

	b, err := h.ledger.GetBooking(c.Request.Context(), bookingID)
	if err != nil {
		h.writeBookingError(c, err)
		return
	}
	if b.UserID != uid {
		c.JSON(http.StatusForbidden, gin.H{"error": "Нельзя оставить заявку по чужому бронированию"})
		return
	}

	if err := h.ledger.RequestService(c.Request.Context(), req.Type, req.Notes, bookingID, uid); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Заявка на услугу принята"})
}

func (h *Handler) writeBookingError(c *gin.Context, err error) {
	var decodeErr *model.DecodeError
	switch {
	case errors.Is(err, booking.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Бронирование не найдено"})
	case errors.Is(err, booking.ErrNoAvailableRooms):
		c.JSON(http.StatusConflict, gin.H{"error": "Нет свободных номеров на выбранные даты"})
	case errors.Is(err, booking.ErrInvalidDates):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные даты бронирования"})
	case errors.Is(err, booking.ErrCancellationNotAllowed):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Нельзя отменить бронирование после даты заезда"})
	case errors.As(err, &decodeErr):
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
