package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"taskpilot/internal/common/apperr"
	"taskpilot/internal/common/models"
	"taskpilot/internal/features/project"
	"taskpilot/internal/features/task"
	"taskpilot/internal/features/user"

	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type ReportService interface {
	// ExportWorkbook builds an xlsx with a Projects sheet and a Tasks
	// sheet, scoped to the projects the caller can see.
	ExportWorkbook(ctx context.Context, userID string, role models.Role) ([]byte, string, error)
}

type ReportServiceImpl struct {
	ProjectRepo project.ProjectRepository
	TaskRepo    task.TaskRepository
	UserRepo    user.UserRepository
	Logger      *zap.Logger
}

func NewReportService(projectRepo project.ProjectRepository, taskRepo task.TaskRepository, userRepo user.UserRepository, logger *zap.Logger) ReportService {
	return &ReportServiceImpl{
		ProjectRepo: projectRepo,
		TaskRepo:    taskRepo,
		UserRepo:    userRepo,
		Logger:      logger,
	}
}

func (s *ReportServiceImpl) ExportWorkbook(ctx context.Context, userID string, role models.Role) ([]byte, string, error) {
	filter := bson.M{}
	if role != models.RoleAdmin {
		oid, err := primitive.ObjectIDFromHex(userID)
		if err != nil {
			return nil, "", fmt.Errorf("invalid user id: %w", apperr.ErrValidation)
		}
		filter = bson.M{"$or": []bson.M{
			{"project_manager": oid},
			{"team_members": oid},
		}}
	}

	projects, _, err := s.ProjectRepo.List(ctx, filter, 0, 0)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	if err := s.writeProjectsSheet(f, headerStyle, projects); err != nil {
		return nil, "", err
	}
	if err := s.writeTasksSheet(ctx, f, headerStyle, projects); err != nil {
		return nil, "", err
	}
	f.DeleteSheet("Sheet1")

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}
	filename := fmt.Sprintf("taskpilot-report-%s.xlsx", time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

var projectColumns = []string{"Name", "Status", "Deadline", "Manager", "Team Size", "Created At"}

func (s *ReportServiceImpl) writeProjectsSheet(f *excelize.File, headerStyle int, projects []project.Project) error {
	const sheet = "Projects"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return err
	}
	f.SetActiveSheet(index)

	for i, col := range projectColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, col)
		f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	for rowIdx, p := range projects {
		deadline := ""
		if p.Deadline != nil {
			deadline = p.Deadline.Format("2006-01-02")
		}
		manager := ""
		if p.ProjectManager != nil {
			manager = p.ProjectManager.Hex()
		}
		row := []interface{}{
			p.Name,
			string(p.Status),
			deadline,
			manager,
			len(p.TeamMembers),
			p.CreatedAt.Format("2006-01-02"),
		}
		for colIdx, value := range row {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue(sheet, cell, value)
		}
	}
	return nil
}

var taskColumns = []string{"Project", "Title", "Status", "Priority", "Due Date", "Assignees", "Created At"}

func (s *ReportServiceImpl) writeTasksSheet(ctx context.Context, f *excelize.File, headerStyle int, projects []project.Project) error {
	const sheet = "Tasks"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	for i, col := range taskColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, col)
		f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	rowIdx := 0
	for _, p := range projects {
		tasks, err := s.TaskRepo.ListByProject(ctx, p.ID)
		if err != nil {
			return err
		}
		for _, t := range tasks {
			due := ""
			if t.DueDate != nil {
				due = t.DueDate.Format("2006-01-02")
			}
			assignees := make([]string, 0, len(t.Assignees))
			for _, a := range t.Assignees {
				assignees = append(assignees, a.Hex())
			}
			row := []interface{}{
				p.Name,
				t.Title,
				string(t.Status),
				string(t.Priority),
				due,
				strings.Join(assignees, ", "),
				t.CreatedAt.Format("2006-01-02"),
			}
			for colIdx, value := range row {
				cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
				f.SetCellValue(sheet, cell, value)
			}
			rowIdx++
		}
	}
	return nil
}
