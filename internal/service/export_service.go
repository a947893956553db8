package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"faculty-sub/backend/internal/model"
	"faculty-sub/backend/internal/repository"
)

// ── 导出模块业务错误 ──

var ErrExportGenerateFail = errors.New("生成导出文件失败")

// ExportService 导出业务接口
//
// 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response。
type ExportService interface {
	// ExportHistory 导出教师发布的全部代课申请为 Excel
	ExportHistory(ctx context.Context, teacherID uint) (*bytes.Buffer, string, error)
	// ExportCalendar 导出教师已接受的代课为 iCalendar，供手机日历订阅
	ExportCalendar(ctx context.Context, teacherID uint) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo    *repository.Repository
	loc     *time.Location
	timeout time.Duration
	logger  *zap.Logger
}

// NewExportService 创建 ExportService 实例；loc 为上课日期与时间所在时区
func NewExportService(repo *repository.Repository, loc *time.Location, timeout time.Duration, logger *zap.Logger) ExportService {
	if loc == nil {
		loc = time.UTC
	}
	return &exportService{repo: repo, loc: loc, timeout: timeout, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportHistory 代课申请记录导出为 Excel
// ═══════════════════════════════════════════════════════════
//
// 表头: | 编号 | 科目 | 日期 | 时间 | 时长(分钟) | 教室 | 状态 | 接受人 | 备注 | 创建时间 |
// 行序与 ListByTeacher 一致（最新在前）

var historyHeaders = []string{"ID", "Subject", "Date", "Time", "Duration (min)", "Classroom", "Status", "Accepted By", "Notes", "Created At"}

func (s *exportService) ExportHistory(ctx context.Context, teacherID uint) (*bytes.Buffer, string, error) {
	cctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	list, err := s.repo.Request.ListByTeacher(cctx, teacherID)
	if err != nil {
		s.logger.Error("查询教师申请记录失败", zap.Uint("teacher_id", teacherID), zap.Error(err))
		return nil, "", upstream(err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Requests"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	for i, h := range historyHeaders {
		f.SetCellValue(sheetName, cell(colName(i), 1), h)
	}
	f.SetCellStyle(sheetName, "A1", cell(colName(len(historyHeaders)-1), 1), headerStyle)
	f.SetColWidth(sheetName, "A", "A", 8)
	f.SetColWidth(sheetName, "B", "B", 24)
	f.SetColWidth(sheetName, "C", "G", 14)
	f.SetColWidth(sheetName, "H", "H", 20)
	f.SetColWidth(sheetName, "I", "I", 32)
	f.SetColWidth(sheetName, "J", "J", 22)

	for i := range list {
		r := &list[i]
		row := i + 2
		acceptor := ""
		if r.Acceptor != nil {
			acceptor = r.Acceptor.Name
		}
		notes := ""
		if r.Notes != nil {
			notes = *r.Notes
		}
		values := []interface{}{
			r.ID,
			r.Subject,
			r.Date.Format(dateLayout),
			r.Time,
			r.DurationMinutes,
			r.Classroom,
			string(r.Status),
			acceptor,
			notes,
			r.CreatedAt.In(s.loc).Format("2006-01-02 15:04"),
		}
		for col, v := range values {
			f.SetCellValue(sheetName, cell(colName(col), row), v)
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	return buf, fmt.Sprintf("substitute_requests_%d.xlsx", teacherID), nil
}

// ═══════════════════════════════════════════════════════════
// ExportCalendar 已接受的代课导出为 iCalendar
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportCalendar(ctx context.Context, teacherID uint) (*bytes.Buffer, string, error) {
	cctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	list, err := s.repo.Request.ListAcceptedBy(cctx, teacherID)
	if err != nil {
		s.logger.Error("查询已接受申请失败", zap.Uint("teacher_id", teacherID), zap.Error(err))
		return nil, "", upstream(err)
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//faculty-sub//substitute covers//EN")
	cal.SetXWRCalName("Substitute Classes")
	cal.SetXWRTimezone(s.loc.String())

	stamp := time.Now()
	for i := range list {
		r := &list[i]
		start, err := s.startOf(r)
		if err != nil {
			s.logger.Warn("跳过时间无效的代课", zap.Uint("request_id", r.ID), zap.String("time", r.Time))
			continue
		}

		event := cal.AddEvent(fmt.Sprintf("substitute-request-%d@faculty-sub", r.ID))
		event.SetDtStampTime(stamp)
		event.SetStartAt(start)
		event.SetEndAt(start.Add(time.Duration(r.DurationMinutes) * time.Minute))
		event.SetSummary("Substitute: " + r.Subject)
		event.SetLocation(r.Classroom)
		event.SetDescription(describe(r))
	}

	buf := bytes.NewBufferString(cal.Serialize())
	return buf, fmt.Sprintf("substitute_covers_%d.ics", teacherID), nil
}

// startOf 组合日期与 HH:MM 为带时区的开始时刻
func (s *exportService) startOf(r *model.SubstituteRequest) (time.Time, error) {
	clock, err := time.Parse("15:04", r.Time)
	if err != nil {
		return time.Time{}, err
	}
	y, m, d := r.Date.Date()
	return time.Date(y, m, d, clock.Hour(), clock.Minute(), 0, 0, s.loc), nil
}

func describe(r *model.SubstituteRequest) string {
	desc := fmt.Sprintf("%d min class", r.DurationMinutes)
	if r.Teacher != nil {
		desc = fmt.Sprintf("Covering for %s, %s", r.Teacher.Name, desc)
	}
	if r.Notes != nil && *r.Notes != "" {
		desc += "\n" + *r.Notes
	}
	return desc
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
