package handlers

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/darahtanyoe/mitra-dashboard/internal/middleware"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportDonations downloads the filtered donation queue as a workbook.
func (h *Handler) ExportDonations(w http.ResponseWriter, r *http.Request) {
	sid := middleware.SessionID(r.Context())
	list := h.donationList(r)
	list.SetFilter(donationFilterFromQuery(r))
	if err := list.Refresh(r.Context()); err != nil {
		h.handlePageError(w, r, sid, err)
		return
	}

	f := excelize.NewFile()
	defer f.Close()
	const sheet = "Pendonoran"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"No", "Nama Pendonor", "No. Telepon", "Golongan Darah", "Status", "Tanggal Donor", "Kode Unik", "Terverifikasi"}
	writeHeaderRow(f, sheet, headers)
	for i, row := range list.Rows() {
		values := []any{
			row.No,
			row.Record.FullName,
			row.Record.PhoneNumber,
			row.Record.BloodRequest.BloodType,
			row.Display.Label,
			row.CreatedDate,
			row.Record.UniqueCode,
			indonesianBool(row.Record.UniqueCodeVerified),
		}
		writeDataRow(f, sheet, i+2, values)
	}

	serveWorkbook(w, f, "pendonoran")
}

// ExportRequests downloads the filtered blood-request queue as a workbook.
func (h *Handler) ExportRequests(w http.ResponseWriter, r *http.Request) {
	sid := middleware.SessionID(r.Context())
	list := h.requestList(r)
	list.SetFilter(requestFilterFromQuery(r))
	if err := list.Refresh(r.Context()); err != nil {
		h.handlePageError(w, r, sid, err)
		return
	}

	f := excelize.NewFile()
	defer f.Close()
	const sheet = "Permintaan"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"No", "Nama Pasien", "Golongan Darah", "Jumlah Kantong", "Terpenuhi", "Permintaan Dibuat", "Permintaan Berakhir", "Status"}
	writeHeaderRow(f, sheet, headers)
	for i, row := range list.Rows() {
		values := []any{
			row.No,
			row.Record.PatientName,
			row.Record.BloodType,
			row.Record.Quantity,
			row.Record.BloodBagsFulfilled,
			row.CreatedDate,
			row.ExpiryDate,
			row.Display.Label,
		}
		writeDataRow(f, sheet, i+2, values)
	}

	serveWorkbook(w, f, "permintaan")
}

func writeHeaderRow(f *excelize.File, sheet string, headers []string) {
	for col, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		_ = f.SetCellValue(sheet, cell, header)
	}
}

func writeDataRow(f *excelize.File, sheet string, rowNum int, values []any) {
	for col, v := range values {
		cell, _ := excelize.CoordinatesToCellName(col+1, rowNum)
		_ = f.SetCellValue(sheet, cell, v)
	}
}

func serveWorkbook(w http.ResponseWriter, f *excelize.File, prefix string) {
	fileName := prefix + "_" + time.Now().Format("20060102") + ".xlsx"
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+strconv.Quote(fileName))
	if err := f.Write(w); err != nil {
		log.Printf("[handlers] write workbook: %v", err)
	}
}

func indonesianBool(b bool) string {
	if b {
		return "Ya"
	}
	return "Tidak"
}
