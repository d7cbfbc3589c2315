// Package controllers provides HTTP handlers for the administrator dashboard.
// File: controllers/admin_controller.go
package controllers

import (
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"ticket-gate/apiclient"
	"ticket-gate/logger"
	"ticket-gate/middleware"
	"ticket-gate/models"
	"ticket-gate/services"
)

// ---------------- Admin Controller ----------------

// AdminController serves the dashboard: concerts, tickets, QR codes, attendance.
type AdminController struct {
	// QREncoder renders development QR codes locally; nil uses go-qrcode.
	QREncoder services.QRCodeEncoder
	// Now is the clock used in archive names.
	Now func() time.Time
}

// NewAdminController initializes a new instance of AdminController
func NewAdminController(encoder services.QRCodeEncoder) *AdminController {
	return &AdminController{QREncoder: encoder, Now: time.Now}
}

func dashboardURL(concertID int64) string {
	if concertID <= 0 {
		return "/dashboard"
	}
	return fmt.Sprintf("/dashboard?concert=%d", concertID)
}

// ---------------- dashboard ----------------

// Dashboard lists concerts and, when ?concert= selects one, its tickets and attendance.
// ?view=table switches the ticket list from the QR grid to a table.
func (ac *AdminController) Dashboard(c *gin.Context) {
	api := middleware.API(c)
	ctx := c.Request.Context()

	view := c.DefaultQuery("view", "qr")
	if view != "table" {
		view = "qr"
	}

	data := gin.H{
		"Flashes":      takeFlashes(c),
		"Username":     currentUserName(c),
		"View":         view,
		"BatchDefault": services.DefaultBatchQuantity,
		"BatchMax":     services.MaxBatchQuantity,
	}

	concerts, err := api.Concerts.List(ctx)
	if err != nil {
		if c.IsAborted() {
			return
		}
		logger.Error.Printf("[Dashboard] Failed to load concerts: %v", err)
		data["Error"] = apiclient.Detail(err, "Failed to load concerts")
		c.HTML(http.StatusOK, "dashboard.html", data)
		return
	}
	data["Concerts"] = concerts

	if raw := c.Query("concert"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.Redirect(http.StatusFound, "/dashboard")
			return
		}
		if !ac.loadConcert(c, id, concerts, data) {
			return
		}
	}

	c.HTML(http.StatusOK, "dashboard.html", data)
}

// loadConcert fills the selected concert's tickets and attendance. It returns false
// when the request was already answered.
func (ac *AdminController) loadConcert(c *gin.Context, id int64, concerts []models.Concert, data gin.H) bool {
	api := middleware.API(c)
	ctx := c.Request.Context()

	var selected *models.Concert
	for i := range concerts {
		if concerts[i].ID == id {
			selected = &concerts[i]
			break
		}
	}
	if selected == nil {
		concert, err := api.Concerts.Get(ctx, id)
		if err != nil {
			if c.IsAborted() {
				return false
			}
			logger.Warn.Printf("[Dashboard] Concert %d not found: %v", id, err)
			data["Error"] = apiclient.Detail(err, "Failed to load concert details")
			return true
		}
		selected = concert
	}
	data["Selected"] = selected

	tickets, err := api.Tickets.ListConcert(ctx, id)
	if err != nil {
		if c.IsAborted() {
			return false
		}
		logger.Error.Printf("[Dashboard] Failed to load tickets for concert %d: %v", id, err)
		data["Error"] = apiclient.Detail(err, "Failed to load concert details")
		tickets = nil
	}
	data["Tickets"] = tickets

	attendance, err := api.Scans.Attendance(ctx, id)
	if err != nil {
		if c.IsAborted() {
			return false
		}
		logger.Warn.Printf("[Dashboard] Attendance unavailable for concert %d: %v", id, err)
		empty := models.EmptyAttendance()
		attendance = &empty
	}
	data["Attendance"] = attendance
	return true
}

// ---------------- concerts ----------------

func concertForm(c *gin.Context) models.ConcertInput {
	return models.ConcertInput{
		Name:        strings.TrimSpace(c.PostForm("name")),
		Venue:       strings.TrimSpace(c.PostForm("venue")),
		Date:        strings.TrimSpace(c.PostForm("date")),
		Description: strings.TrimSpace(c.PostForm("description")),
	}
}

// CreateConcert handles the new-concert form.
func (ac *AdminController) CreateConcert(c *gin.Context) {
	in := concertForm(c)
	if !in.Complete() {
		addFlash(c, flashError, "Please fill in all required fields")
		c.Redirect(http.StatusFound, "/dashboard")
		return
	}

	concert, err := middleware.API(c).Concerts.Create(c.Request.Context(), in)
	if err != nil {
		failAndRedirect(c, "/dashboard", "Failed to create concert", err)
		return
	}

	logger.Info.Printf("[CreateConcert] %s created concert %d (%s)", currentUserName(c), concert.ID, concert.Name)
	addFlash(c, flashSuccess, fmt.Sprintf("Concert %q created successfully!", concert.Name))
	c.Redirect(http.StatusFound, dashboardURL(concert.ID))
}

// UpdateConcert handles the edit form; every field is sent.
func (ac *AdminController) UpdateConcert(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	in := concertForm(c)
	if !in.Complete() {
		addFlash(c, flashError, "Please fill in all required fields")
		c.Redirect(http.StatusFound, dashboardURL(id))
		return
	}

	concert, err := middleware.API(c).Concerts.Update(c.Request.Context(), id, in)
	if err != nil {
		failAndRedirect(c, dashboardURL(id), "Failed to update concert", err)
		return
	}

	logger.Info.Printf("[UpdateConcert] %s updated concert %d", currentUserName(c), id)
	addFlash(c, flashSuccess, fmt.Sprintf("Concert %q updated successfully!", concert.Name))
	c.Redirect(http.StatusFound, dashboardURL(id))
}

// ConfirmDeleteConcert asks before a concert and all its tickets are deleted.
func (ac *AdminController) ConfirmDeleteConcert(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	concert, err := middleware.API(c).Concerts.Get(c.Request.Context(), id)
	if err != nil {
		failAndRedirect(c, "/dashboard", "Failed to load concert details", err)
		return
	}

	c.HTML(http.StatusOK, "confirm.html", gin.H{
		"Title":   "Delete concert",
		"Message": fmt.Sprintf("Delete concert %q? This will delete all associated tickets and cannot be undone.", concert.Name),
		"Action":  fmt.Sprintf("/dashboard/concerts/%d/delete", id),
		"Name":    concert.Name,
		"Cancel":  dashboardURL(id),
	})
}

// DeleteConcert deletes only when the confirmation form was submitted.
func (ac *AdminController) DeleteConcert(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if c.PostForm("confirm") != "yes" {
		c.Redirect(http.StatusFound, fmt.Sprintf("/dashboard/concerts/%d/delete", id))
		return
	}

	if err := middleware.API(c).Concerts.Delete(c.Request.Context(), id); err != nil {
		failAndRedirect(c, dashboardURL(id), "Failed to delete concert", err)
		return
	}

	name := c.PostForm("name")
	if name == "" {
		name = strconv.FormatInt(id, 10)
	}
	logger.Info.Printf("[DeleteConcert] %s deleted concert %d", currentUserName(c), id)
	addFlash(c, flashSuccess, fmt.Sprintf("Concert %q deleted", name))
	c.Redirect(http.StatusFound, "/dashboard")
}

// ---------------- tickets ----------------

// CreateTicket issues one ticket for the concert.
func (ac *AdminController) CreateTicket(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	ticket, err := middleware.API(c).Tickets.Create(c.Request.Context(), id)
	if err != nil {
		failAndRedirect(c, dashboardURL(id), "Failed to create ticket", err)
		return
	}
	addFlash(c, flashSuccess, fmt.Sprintf("Ticket %s created", ticket.TicketNumber))
	c.Redirect(http.StatusFound, dashboardURL(id))
}

// GenerateBatch issues quantity tickets. The quantity is checked locally first so
// an out-of-range request never reaches the API.
func (ac *AdminController) GenerateBatch(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	quantity, err := services.ParseBatchQuantity(c.PostForm("quantity"))
	if err != nil {
		logger.Warn.Printf("[GenerateBatch] Rejected quantity %q: %v", c.PostForm("quantity"), err)
		addFlash(c, flashError, services.BatchQuantityMessage)
		c.Redirect(http.StatusFound, dashboardURL(id))
		return
	}

	result, err := middleware.API(c).Tickets.CreateBatch(c.Request.Context(), id, quantity)
	if err != nil {
		failAndRedirect(c, dashboardURL(id), "Failed to generate QR codes", err)
		return
	}

	logger.Info.Printf("[GenerateBatch] %s generated %d tickets for concert %d", currentUserName(c), result.CreatedCount, id)
	addFlash(c, flashSuccess, fmt.Sprintf("Generated %d QR codes!", result.CreatedCount))
	c.Redirect(http.StatusFound, dashboardURL(id))
}

// DownloadConcertQRCodes proxies the zip of every QR code of a concert.
func (ac *AdminController) DownloadConcertQRCodes(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	api := middleware.API(c)
	ctx := c.Request.Context()

	name := fmt.Sprintf("concert-%d", id)
	if concert, err := api.Concerts.Get(ctx, id); err == nil {
		name = concert.Name
	} else if c.IsAborted() {
		return
	}

	dl, err := api.Tickets.DownloadConcertQRCodes(ctx, id, services.ConcertArchiveName(name, ac.Now()))
	if err != nil {
		failAndRedirect(c, dashboardURL(id), "Failed to download QR codes", err)
		return
	}
	sendDownload(c, dl, "application/zip", true)
}

// TicketQR serves one ticket's QR code. ?dev=1 renders it locally from the ticket
// number instead of asking the API; ?inline=1 displays rather than downloads.
func (ac *AdminController) TicketQR(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	api := middleware.API(c)
	ctx := c.Request.Context()

	ticket, err := api.Tickets.Get(ctx, id)
	if err != nil {
		failAndRedirect(c, "/dashboard", "Failed to load ticket", err)
		return
	}
	inline := c.Query("inline") == "1"

	if c.Query("dev") == "1" {
		png, err := services.GenerateTicketQR(ticket.QRPayload(), services.DefaultQRSize, ac.QREncoder)
		if err != nil {
			logger.Error.Printf("[TicketQR] Local QR generation failed for %s: %v", ticket.TicketNumber, err)
			c.String(http.StatusInternalServerError, "QR generation failed")
			return
		}
		sendDownload(c, &apiclient.Download{
			ContentType: "image/png",
			Filename:    services.TicketQRName(ticket.TicketNumber),
			Body:        png,
		}, "image/png", !inline)
		return
	}

	dl, err := api.Tickets.DownloadQR(ctx, id, services.TicketQRName(ticket.TicketNumber))
	if err != nil {
		failAndRedirect(c, dashboardURL(ticket.ConcertID), "Failed to download QR code", err)
		return
	}
	sendDownload(c, dl, "image/png", !inline)
}

func sendDownload(c *gin.Context, dl *apiclient.Download, fallbackType string, attachment bool) {
	contentType := dl.ContentType
	if contentType == "" {
		contentType = fallbackType
	}
	disposition := "inline"
	if attachment {
		disposition = "attachment"
	}
	// FormatMediaType switches to RFC 2231 filename* for non-ASCII names
	if header := mime.FormatMediaType(disposition, map[string]string{"filename": dl.Filename}); header != "" {
		c.Header("Content-Disposition", header)
	} else {
		c.Header("Content-Disposition", disposition)
	}
	c.Data(http.StatusOK, contentType, dl.Body)
}

// TicketDetail shows a ticket with its scan history.
func (ac *AdminController) TicketDetail(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	api := middleware.API(c)
	ctx := c.Request.Context()

	ticket, err := api.Tickets.Get(ctx, id)
	if err != nil {
		failAndRedirect(c, "/dashboard", "Failed to load ticket", err)
		return
	}

	scans, err := api.Scans.TicketScans(ctx, id)
	if err != nil {
		if c.IsAborted() {
			return
		}
		logger.Warn.Printf("[TicketDetail] Scan history unavailable for ticket %d: %v", id, err)
		scans = nil
	}

	c.HTML(http.StatusOK, "ticket.html", gin.H{
		"Flashes": takeFlashes(c),
		"Ticket":  ticket,
		"Scans":   scans,
	})
}

// MarkSold records the buyer of a ticket.
func (ac *AdminController) MarkSold(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	back := fmt.Sprintf("/dashboard/tickets/%d", id)

	req := models.MarkSoldRequest{
		BuyerName:  strings.TrimSpace(c.PostForm("buyer_name")),
		BuyerEmail: strings.TrimSpace(c.PostForm("buyer_email")),
	}
	price, err := decimal.NewFromString(strings.TrimSpace(c.PostForm("price")))
	if req.BuyerName == "" || req.BuyerEmail == "" || err != nil || price.IsNegative() {
		addFlash(c, flashError, "Please fill in all required fields")
		c.Redirect(http.StatusFound, back)
		return
	}
	req.Price = price

	ticket, err := middleware.API(c).Tickets.MarkSold(c.Request.Context(), id, req)
	if err != nil {
		failAndRedirect(c, back, "Failed to mark ticket as sold", err)
		return
	}
	addFlash(c, flashSuccess, fmt.Sprintf("Ticket %s sold to %s", ticket.TicketNumber, ticket.BuyerName))
	c.Redirect(http.StatusFound, back)
}

// ConfirmDeleteTicket asks before a ticket is deleted.
func (ac *AdminController) ConfirmDeleteTicket(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	ticket, err := middleware.API(c).Tickets.Get(c.Request.Context(), id)
	if err != nil {
		failAndRedirect(c, "/dashboard", "Failed to load ticket", err)
		return
	}

	c.HTML(http.StatusOK, "confirm.html", gin.H{
		"Title":     "Delete ticket",
		"Message":   fmt.Sprintf("Delete ticket %s? This cannot be undone.", ticket.TicketNumber),
		"Action":    fmt.Sprintf("/dashboard/tickets/%d/delete", id),
		"Name":      ticket.TicketNumber,
		"ConcertID": ticket.ConcertID,
		"Cancel":    fmt.Sprintf("/dashboard/tickets/%d", id),
	})
}

// DeleteTicket deletes only when the confirmation form was submitted.
func (ac *AdminController) DeleteTicket(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if c.PostForm("confirm") != "yes" {
		c.Redirect(http.StatusFound, fmt.Sprintf("/dashboard/tickets/%d/delete", id))
		return
	}
	concertID, _ := strconv.ParseInt(c.PostForm("concert_id"), 10, 64)

	if err := middleware.API(c).Tickets.Delete(c.Request.Context(), id); err != nil {
		failAndRedirect(c, dashboardURL(concertID), "Failed to delete ticket", err)
		return
	}
	logger.Info.Printf("[DeleteTicket] %s deleted ticket %d", currentUserName(c), id)
	addFlash(c, flashSuccess, fmt.Sprintf("Ticket %s deleted", c.PostForm("name")))
	c.Redirect(http.StatusFound, dashboardURL(concertID))
}
