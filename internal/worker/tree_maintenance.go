package worker

import (
	"context"
	"time"

	classroomsvc "folk_academy/internal/api/classroom/service"
	"folk_academy/internal/logger"
)

// TreeMaintenanceWorker worker bảo trì cây lớp học.
// Chạy định kỳ hai sweep: đưa lớp mồ côi về gốc và đồng bộ lại contentCount.
// Các counter denormalized có thể lệch do write lỗi giữa chừng (không có
// transaction), worker này là lưới an toàn để hệ thống tự hội tụ.
type TreeMaintenanceWorker struct {
	classroomService *classroomsvc.ClassroomService
	interval         time.Duration // Khoảng thời gian giữa các lần chạy
}

// NewTreeMaintenanceWorker tạo mới TreeMaintenanceWorker
// Tham số:
//   - interval: Khoảng thời gian giữa các lần chạy (mặc định: 1 giờ)
//
// Trả về:
//   - *TreeMaintenanceWorker: Instance mới của TreeMaintenanceWorker
//   - error: Lỗi nếu có trong quá trình khởi tạo
func NewTreeMaintenanceWorker(interval time.Duration) (*TreeMaintenanceWorker, error) {
	classroomService, err := classroomsvc.NewClassroomService()
	if err != nil {
		return nil, err
	}

	if interval < time.Minute {
		interval = time.Hour
	}

	return &TreeMaintenanceWorker{
		classroomService: classroomService,
		interval:         interval,
	}, nil
}

// Start bắt đầu background worker bảo trì cây lớp học.
// Worker chạy định kỳ theo interval, mỗi sweep đều idempotent nên chạy
// chồng lần không gây hại.
func (w *TreeMaintenanceWorker) Start(ctx context.Context) {
	log := logger.GetWorkerLogger()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	log.WithFields(map[string]interface{}{
		"interval": w.interval.String(),
	}).Info("🌳 [TREE_MAINTENANCE] Starting Tree Maintenance Worker...")

	for {
		select {
		case <-ctx.Done():
			log.Info("🌳 [TREE_MAINTENANCE] Tree Maintenance Worker stopped")
			return
		case <-ticker.C:
			func() {
				defer func() {
					if r := recover(); r != nil {
						log.WithFields(map[string]interface{}{
							"panic": r,
						}).Error("🌳 [TREE_MAINTENANCE] Panic khi chạy sweep, sẽ tiếp tục ở lần chạy tiếp theo")
					}
				}()

				repaired, err := w.classroomService.CleanupOrphans(ctx)
				if err != nil {
					log.WithError(err).Error("🌳 [TREE_MAINTENANCE] Failed to cleanup orphaned classrooms")
				} else if repaired > 0 {
					log.WithFields(map[string]interface{}{
						"repairedCount": repaired,
					}).Info("🌳 [TREE_MAINTENANCE] Repaired orphaned classrooms")
				}

				corrected, err := w.classroomService.SyncContentCounts(ctx)
				if err != nil {
					log.WithError(err).Error("🌳 [TREE_MAINTENANCE] Failed to sync content counts")
				} else if corrected > 0 {
					log.WithFields(map[string]interface{}{
						"correctedCount": corrected,
					}).Info("🌳 [TREE_MAINTENANCE] Corrected content counts")
				}
				// Không log khi cả hai sweep đều sạch (giảm log noise)
			}()
		}
	}
}
