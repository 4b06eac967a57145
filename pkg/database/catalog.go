package database

import (
	"fmt"
	"learnhub_backend/internal/model"
	"os"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// CatalogFile 课程目录导入文件格式
//
//	courses:
//	  - title: Go 入门
//	    modules:
//	      - title: 基础
//	        lessons:
//	          - title: 变量
//	            slides: 6
type CatalogFile struct {
	Courses []CatalogCourse `yaml:"courses"`
}

type CatalogCourse struct {
	Title       string          `yaml:"title"`
	Description string          `yaml:"description"`
	Modules     []CatalogModule `yaml:"modules"`
}

type CatalogModule struct {
	Title   string          `yaml:"title"`
	Lessons []CatalogLesson `yaml:"lessons"`
}

type CatalogLesson struct {
	Title  string `yaml:"title"`
	Slides int    `yaml:"slides"`
}

// ParseCatalog 解析 YAML 课程目录
func ParseCatalog(data []byte) (*CatalogFile, error) {
	var catalog CatalogFile
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	for i, c := range catalog.Courses {
		if c.Title == "" {
			return nil, fmt.Errorf("course #%d: title is required", i+1)
		}
		for j, m := range c.Modules {
			if m.Title == "" {
				return nil, fmt.Errorf("course %q module #%d: title is required", c.Title, j+1)
			}
		}
	}
	return &catalog, nil
}

// SeedCatalogFile 从文件导入课程，同名课程跳过
func SeedCatalogFile(db *gorm.DB, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	catalog, err := ParseCatalog(data)
	if err != nil {
		return 0, err
	}
	return SeedCatalog(db, catalog)
}

// SeedCatalog 按文件中的顺序写入 OrderIndex，返回新建课程数
func SeedCatalog(db *gorm.DB, catalog *CatalogFile) (int, error) {
	created := 0
	err := db.Transaction(func(tx *gorm.DB) error {
		for _, c := range catalog.Courses {
			var count int64
			if err := tx.Model(&model.Course{}).Where("title = ?", c.Title).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				continue
			}

			course := &model.Course{Title: c.Title, Description: c.Description, Published: true}
			if err := tx.Create(course).Error; err != nil {
				return err
			}
			for mi, m := range c.Modules {
				module := &model.CourseModule{CourseID: course.ID, Title: m.Title, OrderIndex: mi + 1}
				if err := tx.Create(module).Error; err != nil {
					return err
				}
				for li, l := range m.Lessons {
					lesson := &model.Lesson{
						ModuleID:   module.ID,
						CourseID:   course.ID,
						Title:      l.Title,
						OrderIndex: li + 1,
						SlideCount: l.Slides,
					}
					if err := tx.Create(lesson).Error; err != nil {
						return err
					}
				}
			}
			created++
		}
		return nil
	})
	return created, err
}
